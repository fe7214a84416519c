package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pageza/nutritionist/backend/internal/database"
	"github.com/pageza/nutritionist/backend/internal/metrics"
	"github.com/pageza/nutritionist/backend/internal/model"
	"github.com/pageza/nutritionist/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	calls   atomic.Int32
	records map[string]*model.NutritionRecord
	err     error
}

func (f *fakeFetcher) SearchFood(_ context.Context, name string) (*model.NutritionRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[strings.ToLower(name)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func record(name, doc string) *model.NutritionRecord {
	return &model.NutritionRecord{Name: name, ExternalID: "1", Document: doc, Source: USDASource, Energy: model.Known(1)}
}

type failingInsertStore struct {
	*database.NutritionStore
}

func (s failingInsertStore) Insert(context.Context, *model.NutritionRecord) error {
	return errors.New("read-only")
}

func TestLookupNutritionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{records: map[string]*model.NutritionRecord{
		"banana": record("banana", "BANANAS, RAW (FDC ID: 1): ..."),
	}}
	svc := NewNutritionService(database.NewNutritionStore(testhelpers.NewSQLiteDB(t)), fetcher, metrics.New(), zap.NewNop())

	first, err := svc.LookupNutrition(ctx, "Banana ")
	require.NoError(t, err)
	second, err := svc.LookupNutrition(ctx, "banana")
	require.NoError(t, err)

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, first.Document, second.Document)
	assert.Equal(t, "banana", second.Name)
}

func TestLookupNutritionNotFound(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string]*model.NutritionRecord{}}
	db := testhelpers.NewSQLiteDB(t)
	svc := NewNutritionService(database.NewNutritionStore(db), fetcher, nil, zap.NewNop())

	_, err := svc.LookupNutrition(context.Background(), "zzz-nonexistent-food")
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&model.NutritionRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLookupNutritionTransportError(t *testing.T) {
	fetcher := &fakeFetcher{err: &TransportError{Op: "usda search", StatusCode: 500}}
	svc := NewNutritionService(database.NewNutritionStore(testhelpers.NewSQLiteDB(t)), fetcher, nil, zap.NewNop())

	_, err := svc.LookupNutrition(context.Background(), "rice")
	var te *TransportError
	assert.True(t, errors.As(err, &te))
}

func TestLookupNutritionRejectsBlankName(t *testing.T) {
	svc := NewNutritionService(nil, &fakeFetcher{}, nil, zap.NewNop())
	_, err := svc.LookupNutrition(context.Background(), "   ")
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestLookupNutritionWriteFailureStillAnswers(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string]*model.NutritionRecord{"rice": record("rice", "RICE")}}
	store := failingInsertStore{database.NewNutritionStore(testhelpers.NewSQLiteDB(t))}
	svc := NewNutritionService(store, fetcher, metrics.New(), zap.NewNop())

	rec, err := svc.LookupNutrition(context.Background(), "rice")
	require.NoError(t, err)
	assert.Equal(t, "RICE", rec.Document)

	// nothing was stored, so the next call fetches again
	_, err = svc.LookupNutrition(context.Background(), "rice")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestLookupNutritionConcurrentSameName(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string]*model.NutritionRecord{"rice": record("rice", "RICE")}}
	svc := NewNutritionService(database.NewNutritionStore(testhelpers.NewSQLiteDB(t)), fetcher, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.LookupNutrition(context.Background(), "rice")
			assert.NoError(t, err)
			assert.Equal(t, "RICE", rec.Document)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
}

type blockingFetcher struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) SearchFood(ctx context.Context, name string) (*model.NutritionRecord, error) {
	if f.calls.Add(1) == 1 {
		close(f.entered)
	}
	select {
	case <-ctx.Done():
		return nil, &TransportError{Op: "usda search", Err: ctx.Err()}
	case <-f.release:
		return record(name, "RICE"), nil
	}
}

func TestLookupNutritionSurvivesCancelledLeader(t *testing.T) {
	fetcher := &blockingFetcher{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewNutritionService(database.NewNutritionStore(testhelpers.NewSQLiteDB(t)), fetcher, nil, zap.NewNop())

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.LookupNutrition(leaderCtx, "rice")
		leaderErr <- err
	}()
	<-fetcher.entered

	type result struct {
		rec *model.NutritionRecord
		err error
	}
	follower := make(chan result, 1)
	go func() {
		rec, err := svc.LookupNutrition(context.Background(), "rice")
		follower <- result{rec, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}
	close(fetcher.release)

	select {
	case res := <-follower:
		require.NoError(t, res.err)
		assert.Equal(t, "RICE", res.rec.Document)
	case <-time.After(2 * time.Second):
		t.Fatal("follower did not return")
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())
}
