package service

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pageza/nutritionist/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubLookup struct {
	docs     map[string]string
	delays   map[string]time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *stubLookup) LookupNutrition(_ context.Context, name string) (*model.NutritionRecord, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	time.Sleep(s.delays[name])
	doc, ok := s.docs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &model.NutritionRecord{Name: name, Document: doc}, nil
}

func TestAnalyzeMealKeepsTokenOrder(t *testing.T) {
	lookup := &stubLookup{
		docs: map[string]string{"banana": "BANANA DOC", "rice": "RICE DOC"},
		// banana finishes last
		delays: map[string]time.Duration{"banana": 30 * time.Millisecond},
	}
	analyzer := NewMealAnalyzer(lookup, 4, zap.NewNop())

	report := analyzer.AnalyzeMeal(context.Background(), "banana, rice")
	assert.Equal(t, "BANANA DOC\nRICE DOC", report)
}

func TestAnalyzeMealPartialFailure(t *testing.T) {
	lookup := &stubLookup{docs: map[string]string{"rice": "RICE DOC"}}
	analyzer := NewMealAnalyzer(lookup, 2, zap.NewNop())

	report := analyzer.AnalyzeMeal(context.Background(), "2 cups rice, 1 unobtainium")
	assert.Equal(t, "RICE DOC\nNo nutrition data found for 'unobtainium'.", report)
}

func TestAnalyzeMealAllFailed(t *testing.T) {
	analyzer := NewMealAnalyzer(&stubLookup{}, 2, zap.NewNop())
	assert.Equal(t, msgNoNutrition, analyzer.AnalyzeMeal(context.Background(), "foo, bar"))
}

func TestAnalyzeMealGuidanceMessages(t *testing.T) {
	analyzer := NewMealAnalyzer(&stubLookup{}, 2, zap.NewNop())

	assert.Equal(t, msgInvalidMeal, analyzer.AnalyzeMeal(context.Background(), ""))
	assert.Equal(t, msgInvalidMeal, analyzer.AnalyzeMeal(context.Background(), "  \n "))
	assert.Equal(t, msgNoFoods, analyzer.AnalyzeMeal(context.Background(), "2 cups, 3 tbsp"))
}

func TestAnalyzeMealBoundsConcurrency(t *testing.T) {
	lookup := &stubLookup{
		docs:   map[string]string{},
		delays: map[string]time.Duration{},
	}
	var foods []string
	for _, f := range []string{"aa", "bb", "cc", "dd", "ee", "ff", "gg", "hh"} {
		lookup.docs[f] = strings.ToUpper(f)
		lookup.delays[f] = 10 * time.Millisecond
		foods = append(foods, f)
	}
	analyzer := NewMealAnalyzer(lookup, 3, zap.NewNop())

	report := analyzer.AnalyzeFoods(context.Background(), foods)
	assert.Equal(t, "AA\nBB\nCC\nDD\nEE\nFF\nGG\nHH", report)
	assert.LessOrEqual(t, lookup.peak.Load(), int32(3))
}
