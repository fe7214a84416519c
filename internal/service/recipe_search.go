package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/nutritionist/backend/internal/metrics"
	"github.com/pageza/nutritionist/backend/internal/model"
	"go.uber.org/zap"
)

const (
	msgNoRecipes          = "No recipes found."
	msgRecipesUnavailable = "Recipe search is currently unavailable."
	previewLength         = 200
	DefaultRecipeTopK     = 5
)

// RecipeSearchService embeds free-text queries and ranks recipes by distance.
type RecipeSearchService struct {
	index    RecipeIndex
	embedder Embedder
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewRecipeSearchService(index RecipeIndex, embedder Embedder, m *metrics.Metrics, log *zap.Logger) *RecipeSearchService {
	return &RecipeSearchService{index: index, embedder: embedder, metrics: m, log: log}
}

// FindRecipes returns up to topK recipes closest to query, best first.
func (s *RecipeSearchService) FindRecipes(ctx context.Context, query string, topK int) ([]model.RecipeRecord, error) {
	if topK <= 0 {
		topK = DefaultRecipeTopK
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	recipes, err := s.index.NearestRecipes(ctx, vecs[0], topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	return recipes, nil
}

// SearchRecipes formats the FindRecipes hits as a ranked text listing.
func (s *RecipeSearchService) SearchRecipes(ctx context.Context, query string, topK int) string {
	recipes, err := s.FindRecipes(ctx, query, topK)
	if err != nil {
		s.log.Error("recipe search failed", zap.String("query", query), zap.Error(err))
		s.metrics.RecipeSearch("error")
		return msgRecipesUnavailable
	}
	if len(recipes) == 0 {
		s.metrics.RecipeSearch("empty")
		return msgNoRecipes
	}
	s.metrics.RecipeSearch("hit")
	return FormatRecipes(recipes)
}

// FormatRecipes renders recipes as 1-based ranked entries separated by a
// blank line.
func FormatRecipes(recipes []model.RecipeRecord) string {
	entries := make([]string, len(recipes))
	for i, r := range recipes {
		title := r.Title
		if title == "" {
			title = "Untitled Recipe"
		}
		link := r.Link
		if link == "" {
			link = "No link available"
		}
		entries[i] = fmt.Sprintf("Recipe %d: %s\nIngredients & Directions: %s...\nLink: %s",
			i+1, title, truncate(r.Document, previewLength), link)
	}
	return strings.Join(entries, "\n\n")
}
