package model

import (
	"strconv"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// RecipeSource tags rows loaded by the batch ingestion job.
const RecipeSource = "recipe_dataset"

// RecipeRecord is one row of the recipe similarity index. Rows are written by
// ingestion only and are looked up by nearest-neighbour search.
type RecipeRecord struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Title       string          `gorm:"size:512;not null" json:"title"`
	Ingredients string          `gorm:"type:text;not null" json:"ingredients"`
	Directions  string          `gorm:"type:text;not null" json:"directions"`
	Link        string          `gorm:"size:1024" json:"link"`
	Source      string          `gorm:"size:50" json:"source"`
	Document    string          `gorm:"type:text;not null" json:"document"`
	Embedding   pgvector.Vector `gorm:"type:vector" json:"-"`
}

func (RecipeRecord) TableName() string {
	return "recipes"
}

// RecipeID returns the synthetic id for the row at index i of an ingestion run.
func RecipeID(i int) string {
	return "recipe_" + strconv.Itoa(i)
}
