package app

import (
	"context"
	"fmt"

	"github.com/dev-tams/assetsweep/internal/config"
	"github.com/dev-tams/assetsweep/internal/storage"
	"github.com/dev-tams/assetsweep/internal/storage/badger"
	"github.com/dev-tams/assetsweep/internal/storage/local"
	"github.com/dev-tams/assetsweep/internal/storage/minio"
	s3store "github.com/dev-tams/assetsweep/internal/storage/s3"
)

// storeFromConfig builds the configured asset store backend.
func storeFromConfig(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	name := cfg.Type

	switch cfg.Type {
	case "badger":
		s, err := badger.Open(badger.Options{
			Name:     name,
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("storage %s: %w", name, err)
		}
		return s, nil

	case "local":
		if cfg.Local.Path == "" {
			return nil, fmt.Errorf("storage %s: local.path is required", name)
		}
		return local.New(name, cfg.Local.Path), nil

	case "s3":
		s, err := s3store.New(ctx, s3store.Options{
			Name:      name,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Prefix:    cfg.S3.Prefix,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("storage %s: %w", name, err)
		}
		return s, nil

	case "minio":
		s, err := minio.New(minio.Options{
			Name:      name,
			Endpoint:  cfg.Minio.Endpoint,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage %s: %w", name, err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("storage: unknown type %q", cfg.Type)
	}
}
