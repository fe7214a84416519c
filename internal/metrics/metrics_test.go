package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAreIndependentPerInstance(t *testing.T) {
	a := New()
	b := New()

	a.NutritionLookup(LookupHit)
	a.NutritionLookup(LookupHit)
	b.NutritionLookup(LookupMiss)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.nutritionLookups.WithLabelValues(LookupHit)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.nutritionLookups.WithLabelValues(LookupHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.nutritionLookups.WithLabelValues(LookupMiss)))
}

func TestCompletionOutcome(t *testing.T) {
	m := New()
	m.Completion("recommendation", nil)
	m.Completion("recommendation", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("recommendation", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("recommendation", "error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.NutritionLookup(LookupHit)
		m.StoreWriteFailed()
		m.RecipeSearch("empty")
		m.Completion("vision", nil)
	})
}
