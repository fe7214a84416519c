package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report messages shown to users.
const (
	msgInvalidMeal  = "Please provide a valid meal description."
	msgNoFoods      = "No valid foods detected in the input."
	msgNoNutrition  = "No nutrition information could be retrieved for any of the provided foods."
	msgFoodNotFound = "No nutrition data found for '%s'."
	defaultFanOut   = 4
)

// MealAnalyzer builds a per-food nutrition report for a meal description.
type MealAnalyzer struct {
	lookup      NutritionLookup
	concurrency int
	log         *zap.Logger
}

func NewMealAnalyzer(lookup NutritionLookup, concurrency int, log *zap.Logger) *MealAnalyzer {
	if concurrency <= 0 {
		concurrency = defaultFanOut
	}
	return &MealAnalyzer{lookup: lookup, concurrency: concurrency, log: log}
}

// AnalyzeMeal never fails: every problem becomes a line of the report.
func (a *MealAnalyzer) AnalyzeMeal(ctx context.Context, mealText string) string {
	if strings.TrimSpace(mealText) == "" {
		return msgInvalidMeal
	}
	return a.AnalyzeFoods(ctx, ExtractFoodTokens(mealText))
}

// AnalyzeFoods reports on already normalized food names in their given order.
func (a *MealAnalyzer) AnalyzeFoods(ctx context.Context, foods []string) string {
	if len(foods) == 0 {
		return msgNoFoods
	}

	lines := make([]string, len(foods))
	found := make([]bool, len(foods))

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for i, food := range foods {
		g.Go(func() error {
			rec, err := a.lookup.LookupNutrition(ctx, food)
			if err != nil {
				a.log.Info("no nutrition data", zap.String("food", food), zap.Error(err))
				lines[i] = fmt.Sprintf(msgFoodNotFound, food)
				return nil
			}
			lines[i] = rec.Document
			found[i] = true
			return nil
		})
	}
	g.Wait()

	hits := 0
	for _, ok := range found {
		if ok {
			hits++
		}
	}
	a.log.Info("meal analyzed", zap.Int("foods", len(foods)), zap.Int("resolved", hits))
	if hits == 0 {
		return msgNoNutrition
	}
	return strings.Join(lines, "\n")
}
