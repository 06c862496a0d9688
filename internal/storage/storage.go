// Package storage holds the object stores used for post photos.
package storage

import (
	"context"
	"fmt"
	"strings"

	"paddock/internal/config"
)

// PhotoStore persists photo objects under slash-separated keys.
type PhotoStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the store selected by PHOTO_STORAGE.
func New(ctx context.Context, cfg *config.Config) (PhotoStore, error) {
	switch cfg.PhotoStorage {
	case "", "local":
		return NewLocalStore(cfg.PhotoUploadDir, cfg.PhotoPublicBase)
	case "s3":
		// A relative base like /media only applies to the local store.
		publicBase := ""
		if strings.HasPrefix(cfg.PhotoPublicBase, "http://") || strings.HasPrefix(cfg.PhotoPublicBase, "https://") {
			publicBase = cfg.PhotoPublicBase
		}
		return NewS3Store(ctx, S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: publicBase,
		})
	default:
		return nil, fmt.Errorf("unsupported photo storage %q", cfg.PhotoStorage)
	}
}

func joinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
