package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/iliyamo/belgrade-mama-market/internal/config"
)

// MinioStore keeps objects in an S3 compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewMinioStore connects to the endpoint and creates the bucket when it
// does not exist yet.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*MinioStore, error) {
	log = log.Named("minio").With(zap.String("endpoint", cfg.MinioEndpoint), zap.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", cfg.MinioEndpoint, err)
	}

	if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
		exists, errExists := client.BucketExists(ctx, cfg.MinioBucket)
		if errExists != nil || !exists {
			return nil, fmt.Errorf("make/verify bucket %s: make: %v, exists: %v", cfg.MinioBucket, err, errExists)
		}
		log.Info("bucket already exists")
	} else {
		log.Info("bucket created")
	}
	return &MinioStore{client: client, bucket: cfg.MinioBucket, log: log}, nil
}

func (s *MinioStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.log.Debug("object stored", zap.String("key", info.Key), zap.Int64("size", info.Size))
	// http(s)://<endpoint>/<bucket>/<key>
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key), nil
}
