package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pageza/nutritionist/backend/internal/database"
	"github.com/pageza/nutritionist/backend/internal/metrics"
	"github.com/pageza/nutritionist/backend/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// NutritionService serves nutrition records from the store and fills it from
// the external source on first use of a name.
type NutritionService struct {
	store   NutritionRepository
	fetcher NutritionFetcher
	metrics *metrics.Metrics
	log     *zap.Logger
	group   singleflight.Group
}

func NewNutritionService(store NutritionRepository, fetcher NutritionFetcher, m *metrics.Metrics, log *zap.Logger) *NutritionService {
	return &NutritionService{
		store:   store,
		fetcher: fetcher,
		metrics: m,
		log:     log,
	}
}

// LookupNutrition returns the record for name, fetching and storing it on a
// miss. Concurrent lookups of the same name share one fetch.
func (s *NutritionService) LookupNutrition(ctx context.Context, name string) (*model.NutritionRecord, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, &ValidationError{Field: "name", Message: "food name is required"}
	}

	// The shared fetch outlives any single caller; the fetcher's own timeout
	// bounds it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.lookup(shared, key, name)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.NutritionRecord), nil
	}
}

func (s *NutritionService) lookup(ctx context.Context, key, rawName string) (*model.NutritionRecord, error) {
	rec, outcome, err := cacheThrough(ctx, cacheOps[*model.NutritionRecord]{
		key: key,
		load: func(ctx context.Context) (*model.NutritionRecord, error) {
			rec, err := s.store.FindByName(ctx, key)
			if errors.Is(err, database.ErrNotFound) {
				return nil, errCacheMiss
			}
			return rec, err
		},
		fetch: func(ctx context.Context) (*model.NutritionRecord, error) {
			s.log.Info("nutrition cache miss, fetching", zap.String("food", key))
			rec, err := s.fetcher.SearchFood(ctx, strings.TrimSpace(rawName))
			if err != nil {
				return nil, err
			}
			rec.Name = key
			return rec, nil
		},
		save: func(ctx context.Context, rec *model.NutritionRecord) error {
			err := s.store.Insert(ctx, rec)
			if errors.Is(err, database.ErrDuplicateKey) {
				return errAlreadyCached
			}
			return err
		},
		reread: true,
	}, s.log)

	switch {
	case errors.Is(err, ErrNotFound):
		s.metrics.NutritionLookup(metrics.LookupNotFound)
		return nil, err
	case err != nil:
		s.metrics.NutritionLookup(metrics.LookupError)
		return nil, err
	case outcome.Hit:
		s.metrics.NutritionLookup(metrics.LookupHit)
	default:
		s.metrics.NutritionLookup(metrics.LookupMiss)
	}
	if outcome.SaveErr != nil {
		s.metrics.StoreWriteFailed()
	}
	return rec, nil
}
