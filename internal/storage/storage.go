// Package storage persists uploaded images and returns their public URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/belgrade-mama-market/internal/config"
)

// FileStore writes one object and returns the URL clients fetch it from.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// extByType maps whitelisted image types to the stored file extension.
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewKey returns a unique object key under prefix, e.g.
// "photos/1f0c...c3.jpg".  The extension follows the content type, never
// the client supplied file name.
func NewKey(prefix, contentType string) string {
	ext := extByType[strings.ToLower(contentType)]
	return path.Join(prefix, uuid.NewString()+ext)
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (FileStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	case "minio", "s3":
		return NewMinioStore(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
