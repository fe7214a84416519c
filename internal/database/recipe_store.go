package database

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pageza/nutritionist/backend/internal/model"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertChunkSize = 500

// RecipeStore is the vector index over ingested recipes. Postgres uses the
// pgvector L2 operator. Other dialects rank rows in memory.
type RecipeStore struct {
	db *gorm.DB
}

func NewRecipeStore(db *gorm.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// UpsertRecipes writes records by id. Re-running with the same ids replaces
// the stored rows.
func (s *RecipeStore) UpsertRecipes(ctx context.Context, records []model.RecipeRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		CreateInBatches(records, upsertChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d recipes: %w", len(records), err)
	}
	return nil
}

// Ready reports whether the recipe table exists.
func (s *RecipeStore) Ready(ctx context.Context) bool {
	return s.db.WithContext(ctx).Migrator().HasTable(&model.RecipeRecord{})
}

// NearestRecipes returns up to k recipes ordered by ascending L2 distance to
// embedding. A missing table yields no rows.
func (s *RecipeStore) NearestRecipes(ctx context.Context, embedding []float32, k int) ([]model.RecipeRecord, error) {
	if k <= 0 || !s.Ready(ctx) {
		return nil, nil
	}

	if isPostgres(s.db) {
		var recipes []model.RecipeRecord
		err := s.db.WithContext(ctx).
			Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{pgvector.NewVector(embedding)}},
			}).
			Where("embedding IS NOT NULL").
			Limit(k).
			Find(&recipes).Error
		if err != nil {
			return nil, fmt.Errorf("failed to search recipes: %w", err)
		}
		return recipes, nil
	}

	var all []model.RecipeRecord
	if err := s.db.WithContext(ctx).Where("embedding IS NOT NULL").Order("id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}

	type ranked struct {
		recipe   model.RecipeRecord
		distance float64
	}
	scored := make([]ranked, 0, len(all))
	for _, r := range all {
		d, err := l2Distance(embedding, r.Embedding.Slice())
		if err != nil {
			return nil, fmt.Errorf("recipe %s: %w", r.ID, err)
		}
		scored = append(scored, ranked{recipe: r, distance: d})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].distance < scored[j].distance
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	recipes := make([]model.RecipeRecord, len(scored))
	for i, r := range scored {
		recipes[i] = r.recipe
	}
	return recipes, nil
}

// CountRecipes returns the number of indexed recipes.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int64, error) {
	if !s.Ready(ctx) {
		return 0, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.RecipeRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func l2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("expected %d dimensions, not %d", len(b), len(a))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
