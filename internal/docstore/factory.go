package docstore

import (
	"context"
	"fmt"

	"custody-go/internal/config"
	"custody-go/internal/custody"
)

// NewDocumentStoreFromConfig creates a DocumentStore implementation based on
// the store config type. A non-nil enc wraps the result in a SealedStore.
func NewDocumentStoreFromConfig(ctx context.Context, cfg config.StoreConfig, enc custody.Encryptor) (custody.DocumentStore, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		return NewSealedStore(store, enc), nil
	}
	return store, nil
}

func newStore(ctx context.Context, cfg config.StoreConfig) (custody.DocumentStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem store requires fs_root to be set")
		}
		store, err := NewFileSystemStore(cfg.Name, cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "paperless":
		store, err := NewPaperlessStore(cfg.Name, cfg.PaperlessURL, cfg.PaperlessToken, cfg.PaperlessPollInterval.Duration)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := NewS3Store(ctx, cfg.Name, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "b2":
		store, err := NewB2Store(ctx, cfg.Name, cfg.B2Bucket, cfg.B2Prefix, cfg.B2KeyID, cfg.B2ApplicationKey)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
