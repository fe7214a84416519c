package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/nutritionist/backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NutritionStore persists nutrition records keyed by normalized food name.
type NutritionStore struct {
	db *gorm.DB
}

func NewNutritionStore(db *gorm.DB) *NutritionStore {
	return &NutritionStore{db: db}
}

// FindByName returns ErrNotFound when no record exists for name.
func (s *NutritionStore) FindByName(ctx context.Context, name string) (*model.NutritionRecord, error) {
	var rec model.NutritionRecord
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load nutrition record %q: %w", name, err)
	}
	return &rec, nil
}

// Insert writes rec once. A row that already exists for the same name is left
// untouched and reported as ErrDuplicateKey.
func (s *NutritionStore) Insert(ctx context.Context, rec *model.NutritionRecord) error {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	if result.Error != nil {
		return fmt.Errorf("failed to insert nutrition record %q: %w", rec.Name, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateKey
	}
	return nil
}
