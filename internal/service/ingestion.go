package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pageza/nutritionist/backend/internal/model"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// IngestionOptions bounds one ingestion run. Row indexes count only rows that
// have every required column.
type IngestionOptions struct {
	BatchSize  int
	MaxRecords int
	// StartIndex skips rows below this index without changing their ids,
	// so an interrupted run can resume.
	StartIndex int
}

type IngestionStats struct {
	RowsRead int
	Dropped  int
	Skipped  int
	Ingested int
	Batches  int
}

// IngestionService loads a recipe CSV into the recipe index.
type IngestionService struct {
	store    RecipeWriter
	embedder Embedder
	opts     IngestionOptions
	log      *zap.Logger
}

func NewIngestionService(store RecipeWriter, embedder Embedder, opts IngestionOptions, log *zap.Logger) *IngestionService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	return &IngestionService{store: store, embedder: embedder, opts: opts, log: log}
}

type csvColumns struct {
	title, ingredients, directions, link int
}

func readHeader(r *csv.Reader) (csvColumns, error) {
	header, err := r.Read()
	if err != nil {
		return csvColumns{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := csvColumns{title: -1, ingredients: -1, directions: -1, link: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title":
			cols.title = i
		case "ingredients":
			cols.ingredients = i
		case "directions":
			cols.directions = i
		case "link":
			cols.link = i
		}
	}

	var missing []string
	if cols.title < 0 {
		missing = append(missing, "title")
	}
	if cols.ingredients < 0 {
		missing = append(missing, "ingredients")
	}
	if cols.directions < 0 {
		missing = append(missing, "directions")
	}
	if len(missing) > 0 {
		return cols, &ValidationError{Field: "csv", Message: "missing columns: " + strings.Join(missing, ", ")}
	}
	return cols, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// RecipeDocument is the text that gets embedded for a recipe.
func RecipeDocument(title, ingredients, directions string) string {
	return fmt.Sprintf("Title: %s\nIngredients: %s\nDirections: %s", title, ingredients, directions)
}

// Ingest reads a CSV with title, ingredients and directions columns (link is
// optional) and upserts it in batches of one embedding call each.
func (s *IngestionService) Ingest(ctx context.Context, r io.Reader) (*IngestionStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	cols, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	stats := &IngestionStats{}
	start := time.Now()
	batch := make([]model.RecipeRecord, 0, s.opts.BatchSize)
	index := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.writeBatch(ctx, batch); err != nil {
			return err
		}
		stats.Batches++
		stats.Ingested += len(batch)
		s.log.Info("ingested batch",
			zap.Int("batch", stats.Batches),
			zap.String("first_id", batch[0].ID),
			zap.String("last_id", batch[len(batch)-1].ID),
			zap.Int("total", stats.Ingested))
		batch = make([]model.RecipeRecord, 0, s.opts.BatchSize)
		return nil
	}

	for {
		if s.opts.MaxRecords > 0 && index >= s.opts.MaxRecords {
			break
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read csv row %d: %w", stats.RowsRead+1, err)
		}
		stats.RowsRead++

		title := field(row, cols.title)
		ingredients := field(row, cols.ingredients)
		directions := field(row, cols.directions)
		if title == "" || ingredients == "" || directions == "" {
			stats.Dropped++
			continue
		}

		i := index
		index++
		if i < s.opts.StartIndex {
			stats.Skipped++
			continue
		}

		batch = append(batch, model.RecipeRecord{
			ID:          model.RecipeID(i),
			Title:       title,
			Ingredients: ingredients,
			Directions:  directions,
			Link:        field(row, cols.link),
			Source:      model.RecipeSource,
			Document:    RecipeDocument(title, ingredients, directions),
		})
		if len(batch) == s.opts.BatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	s.log.Info("ingestion finished",
		zap.Int("rows_read", stats.RowsRead),
		zap.Int("dropped", stats.Dropped),
		zap.Int("skipped", stats.Skipped),
		zap.Int("ingested", stats.Ingested),
		zap.Duration("elapsed", time.Since(start)))
	return stats, nil
}

func (s *IngestionService) writeBatch(ctx context.Context, batch []model.RecipeRecord) error {
	docs := make([]string, len(batch))
	for i := range batch {
		docs[i] = batch[i].Document
	}

	vecs, err := s.embedder.Embed(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to embed batch starting at %s: %w", batch[0].ID, err)
	}
	if len(vecs) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d recipes", len(vecs), len(batch))
	}
	for i := range batch {
		batch[i].Embedding = pgvector.NewVector(vecs[i])
	}

	if err := s.store.UpsertRecipes(ctx, batch); err != nil {
		return fmt.Errorf("failed to store batch starting at %s: %w", batch[0].ID, err)
	}
	return nil
}
