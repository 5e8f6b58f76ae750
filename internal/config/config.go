package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// JWTSecret may be left empty when JWTSecretName points at a Secret
	// Manager secret; main resolves it before the router is built.
	JWTSecret     string `envconfig:"JWT_SECRET"`
	JWTSecretName string `envconfig:"JWT_SECRET_NAME"`

	// GCP / Pub/Sub settings
	GCPProjectID                  string `envconfig:"GCP_PROJECT_ID" required:"true"`
	PubSubCourseEventsTopic       string `envconfig:"PUBSUB_COURSE_EVENTS_TOPIC" default:"course_lifecycle_events"`
	PubSubEmulatorHost            string `envconfig:"PUBSUB_EMULATOR_HOST"`
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`

	// Object storage for analytics snapshot exports
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// Analytics settings
	TrendWindowMonths int `envconfig:"ANALYTICS_TREND_WINDOW_MONTHS" default:"6"`

	// Lesson publish-cascade orchestrator settings
	CascadeQueueName           string `envconfig:"CASCADE_QUEUE_NAME" default:"lesson_publish_queue"`
	CascadePollTimeoutSec      int    `envconfig:"CASCADE_POLL_TIMEOUT_SEC" default:"30"`
	CascadePollMaxMsg          int    `envconfig:"CASCADE_POLL_MAX_MSG" default:"1"`
	CascadeMaxRetries          int    `envconfig:"CASCADE_MAX_RETRIES" default:"5"`
	CascadeBackoffInitialSec   int    `envconfig:"CASCADE_BACKOFF_INITIAL_SEC" default:"1"`
	CascadeBackoffMaxSec       int    `envconfig:"CASCADE_BACKOFF_MAX_SEC" default:"60"`
	CascadeDeadLetterQueueName string `envconfig:"CASCADE_DEAD_LETTER_QUEUE_NAME" default:"lesson_publish_queue_dlq"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
