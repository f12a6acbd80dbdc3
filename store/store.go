// Package store persists generated summaries keyed by page URL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/recipebox/config"
	"github.com/use-agent/recipebox/models"
)

// Store is a persistent mapping from page URL to its latest summary.
//
// Put is an upsert: the last write for a key wins and nothing is merged.
// Get reports a missing key with ok=false and a nil error. Delete of a
// missing key succeeds. Failures to reach the backing medium are
// returned as STORAGE_UNAVAILABLE errors.
type Store interface {
	Put(ctx context.Context, key string, s *models.StoredSummary) error
	Get(ctx context.Context, key string) (*models.StoredSummary, bool, error)
	List(ctx context.Context) (map[string]*models.StoredSummary, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "memory":
		s = NewMemory()
	case "sqlite", "":
		s, err = asStore(OpenSQLite(ctx, cfg.SQLitePath))
	case "redis":
		s, err = asStore(OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}))
	case "s3":
		s, err = asStore(OpenS3(ctx, S3Options{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			UsePathStyle: cfg.S3UsePathStyle,
		}))
	default:
		err = fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// asStore keeps a failed constructor from leaking a typed nil as a
// non-nil Store.
func asStore[T Store](s T, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

var errClosed = errors.New("store is closed")

// unavailable wraps a backend failure as STORAGE_UNAVAILABLE.
func unavailable(op string, err error) *models.PipelineError {
	return models.NewPipelineError(models.ErrCodeStorageUnavailable, "store "+op+" failed", err)
}

// stamp fills the key into a copy of s so stored records always carry it.
func stamp(key string, s *models.StoredSummary) *models.StoredSummary {
	c := *s
	c.Key = key
	return &c
}
