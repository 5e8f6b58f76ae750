package router

import (
	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the full HTTP surface: repositories over both the pooled
// database/sql handle and a native pgx pool, the services on top, and
// the versioned route tree with auth, CORS and request logging.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	dsn := normalizeDSN(cfg.DBConnectionString, cfg.Environment)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// The lifecycle and fact repositories need pgx-native transactions
	// and array parameters, so they run on a separate pool over the same
	// database.
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create pgx pool")
		return nil, nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB via pgx pool")
		return nil, nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	pubSubPublisher, err := pubsub.NewPublisher(context.Background(), cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
		return nil, nil, nil, err
	}

	courseRepo := repository.NewCourseRepo(pool)
	moduleRepo := repository.NewModuleRepo(db)
	lessonRepo := repository.NewLessonRepo(db)
	enrollmentRepo := repository.NewEnrollmentRepo(db)
	completionRepo := repository.NewCompletionRepo(pool)
	ratingRepo := repository.NewRatingRepo(pool)
	dlqRepo := repository.NewDLQRepository(db)

	lifecycleSvc := service.NewLifecycleService(courseRepo, moduleRepo, lessonRepo,
		pubSubPublisher, cfg.PubSubCourseEventsTopic, cfg.CascadeQueueName, logger)
	contentSvc := service.NewContentService(courseRepo, moduleRepo, lessonRepo, logger)
	enrollmentSvc := service.NewEnrollmentService(courseRepo, enrollmentRepo, ratingRepo, logger)
	progressSvc := service.NewProgressService(lessonRepo, completionRepo, enrollmentRepo, logger)
	analyticsSvc := service.NewAnalyticsService(courseRepo, lessonRepo, enrollmentRepo,
		completionRepo, ratingRepo, cfg.TrendWindowMonths, logger)
	exportSvc := service.NewExportService(s3Client, cfg.S3Bucket, logger)
	dlqSvc := service.NewDLQService(dlqRepo)

	courseHandler := handler.NewCourseHandler(lifecycleSvc, contentSvc, enrollmentSvc,
		progressSvc, analyticsSvc, exportSvc, validate)
	moduleHandler := handler.NewModuleHandler(contentSvc, validate)
	lessonHandler := handler.NewLessonHandler(contentSvc, progressSvc, validate)
	dlqHandler := handler.NewDLQHandler(dlqSvc, logger)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.DLQEndpointURL, cfg.PubSubPushServiceAccountEmail, logger)

	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	courseHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	moduleHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	lessonHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	dlqHandler.RegisterRoutes(apiV1Mux, pubsubAuthMiddleware)

	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger/swagger.json")
	})
	mux.Handle("/swagger/", http.StripPrefix("/swagger/", http.FileServer(http.Dir("./docs/swagger/swagger-ui"))))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.RequestLogger(logger)(c.Handler(mux)), db, pool, nil
}

// normalizeDSN adjusts the connection string for the environment: local
// development disables SSL, everything else forces the simple query
// protocol because the production pooler (pgbouncer) cannot handle
// server-side prepared statements.
func normalizeDSN(dsn, environment string) string {
	if environment == "development" && !strings.Contains(dsn, "sslmode") {
		dsn += dsnSeparator(dsn) + "sslmode=disable"
	}
	if environment != "development" && !strings.Contains(dsn, "prefer_simple_protocol") {
		dsn += dsnSeparator(dsn) + "prefer_simple_protocol=true"
	}
	return dsn
}

func dsnSeparator(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return "&"
		}
		return "?"
	}
	return " "
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
