// Package artifacts uploads run reports to S3-compatible object storage.
package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
)

type Store struct {
	client *minio.Client
	bucket string
}

// New builds a client. No request is made until EnsureBucket or Upload.
func New(cfg config.ArtifactsConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	logger.Infof("Created artifact bucket %s", s.bucket)
	return nil
}

// ObjectKey places a run's artifact under its start date and run id.
func ObjectKey(runID string, startedAt time.Time, name string) string {
	return path.Join("runs", startedAt.UTC().Format("2006/01/02"), runID, name)
}

// Upload stores body under key and returns the object location.
func (s *Store) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	logger.WithFields(map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
		"size":   info.Size,
	}).Info("Artifact uploaded")

	return s.bucket + "/" + key, nil
}

func (s *Store) Bucket() string {
	return s.bucket
}
