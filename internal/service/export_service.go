package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// presignExpiry bounds how long an exported snapshot link stays valid.
const presignExpiry = 15 * time.Minute

// ExportService writes analytics snapshots to object storage and hands
// back a time-limited download link. Consumers that want a point-in-time
// report (or to feed a BI pipeline) use this instead of re-polling the
// analytics endpoint.
type ExportService interface {
	// ExportAnalytics serializes the analytics snapshot, stores it under
	// analytics/{courseID}/{timestamp}.json and returns the object key
	// plus a presigned GET URL.
	ExportAnalytics(ctx context.Context, analytics *model.CourseAnalytics) (string, string, error)
}

type exportService struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	logger        zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(s3Client *s3.Client, bucket string, logger zerolog.Logger) ExportService {
	return &exportService{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucket:        bucket,
		logger:        logger.With().Str("service", "ExportService").Logger(),
	}
}

func (s *exportService) ExportAnalytics(ctx context.Context, analytics *model.CourseAnalytics) (string, string, error) {
	payload, err := json.Marshal(analytics)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal analytics snapshot: %w", err)
	}

	key := fmt.Sprintf("analytics/%s/%s.json", analytics.CourseID, analytics.GeneratedAt.UTC().Format("20060102T150405Z"))
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to upload analytics snapshot")
		return "", "", fmt.Errorf("failed to upload analytics snapshot: %w", err)
	}

	request, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	s.logger.Info().Str("key", key).Str("course_id", analytics.CourseID).
		Msg("Exported analytics snapshot")
	return key, request.URL, nil
}
