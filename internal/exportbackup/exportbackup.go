// Package exportbackup persists a point-in-time copy of a vault export to
// S3 for backup/download-later purposes (§4.5 export, supplemented beyond
// the response contract). Grounded on pkg/file/s3.go's AWS SDK client
// construction, but talks directly to s3.Client with a raw byte payload
// since pkg/file.Storage.Save is shaped around multipart file uploads, not
// generated JSON blobs.
package exportbackup

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config describes the destination bucket and credentials.
type Config struct {
	Bucket         string
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string
	ForcePathStyle bool
}

// Uploader implements vaultsvc.ExportBackup.
type Uploader struct {
	client *s3.Client
	bucket string
}

// New constructs an Uploader, loading AWS credentials the same way
// pkg/file.NewS3Storage does.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("exportbackup: bucket and region are required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("exportbackup: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Store uploads payload under a timestamped, account-scoped key. Errors
// are returned to the caller, who per §4.5 must log and swallow them
// rather than fail the export response.
func (u *Uploader) Store(ctx context.Context, accountID string, at time.Time, payload []byte) error {
	key := fmt.Sprintf("exports/%s/%s.json", accountID, at.UTC().Format("20060102T150405Z"))
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("exportbackup: upload export: %w", err)
	}
	return nil
}
