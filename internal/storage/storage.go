// Package storage keeps uploaded catalogue images on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"furnistore/internal/config"
	"furnistore/internal/pkg/utils"
)

var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStorage stores a blob under key and returns its public URL.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the driver selected by cfg.Driver.
func New(cfg config.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir, cfg.PublicURL)
	case "s3":
		return NewS3Storage(cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ObjectKey builds a unique key like "products/2024/05/<uuid>.jpg".
func ObjectKey(folder, filename string, now time.Time) string {
	return path.Join(folder, now.Format("2006/01"), utils.GenerateUUID()+utils.FileExt(filename))
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
