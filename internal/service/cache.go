package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	// errCacheMiss is returned by a cacheOps load when the key is absent.
	errCacheMiss = errors.New("cache miss")
	// errAlreadyCached is returned by a cacheOps save when another writer
	// stored the key first.
	errAlreadyCached = errors.New("already cached")
)

// cacheOps binds one key to a backing store and an upstream source.
type cacheOps[T any] struct {
	key   string
	load  func(ctx context.Context) (T, error)
	fetch func(ctx context.Context) (T, error)
	save  func(ctx context.Context, value T) error
	// reread returns the stored copy after a write instead of the fetched one.
	reread bool
}

type cacheOutcome struct {
	Hit     bool
	SaveErr error
}

// cacheThrough serves key from the store and falls back to fetch on a miss.
// Load failures are treated as misses. A fetch failure is returned as is.
// Save failures are reported in the outcome only: the fetched value is still
// returned to the caller.
func cacheThrough[T any](ctx context.Context, ops cacheOps[T], log *zap.Logger) (T, cacheOutcome, error) {
	var zero T

	if v, ok := tryLoad(ctx, ops, log); ok {
		return v, cacheOutcome{Hit: true}, nil
	}

	fetched, err := ops.fetch(ctx)
	if err != nil {
		return zero, cacheOutcome{}, err
	}

	// another writer may have filled the key while we were fetching
	if v, ok := tryLoad(ctx, ops, log); ok {
		return v, cacheOutcome{}, nil
	}

	err = ops.save(ctx, fetched)
	switch {
	case err == nil:
		if !ops.reread {
			return fetched, cacheOutcome{}, nil
		}
	case errors.Is(err, errAlreadyCached):
		log.Debug("cache key written concurrently", zap.String("key", ops.key))
	default:
		log.Warn("failed to write cache entry", zap.String("key", ops.key), zap.Error(err))
		return fetched, cacheOutcome{SaveErr: err}, nil
	}

	if v, ok := tryLoad(ctx, ops, log); ok {
		return v, cacheOutcome{}, nil
	}
	return fetched, cacheOutcome{}, nil
}

func tryLoad[T any](ctx context.Context, ops cacheOps[T], log *zap.Logger) (T, bool) {
	v, err := ops.load(ctx)
	if err == nil {
		return v, true
	}
	if !errors.Is(err, errCacheMiss) {
		log.Warn("cache read failed, treating as miss", zap.String("key", ops.key), zap.Error(err))
	}
	var zero T
	return zero, false
}
