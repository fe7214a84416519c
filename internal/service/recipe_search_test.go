package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pageza/nutritionist/backend/internal/database"
	"github.com/pageza/nutritionist/backend/internal/model"
	"github.com/pageza/nutritionist/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSearchRecipesEmptyStore(t *testing.T) {
	store := database.NewRecipeStore(testhelpers.NewSQLiteDB(t))
	svc := NewRecipeSearchService(store, NewHashEmbedder(32), nil, zap.NewNop())

	assert.Equal(t, "No recipes found.", svc.SearchRecipes(context.Background(), "chicken", 5))
}

func TestSearchRecipesMissingTable(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	require.NoError(t, db.Migrator().DropTable(&model.RecipeRecord{}))
	svc := NewRecipeSearchService(database.NewRecipeStore(db), NewHashEmbedder(32), nil, zap.NewNop())

	assert.Equal(t, "No recipes found.", svc.SearchRecipes(context.Background(), "chicken", 5))
}

func TestSearchRecipesRanksIngestedRecipes(t *testing.T) {
	ctx := context.Background()
	store := database.NewRecipeStore(testhelpers.NewSQLiteDB(t))
	embedder := NewHashEmbedder(128)

	csv := "title,ingredients,directions,link\n" +
		"Chicken Rice Bowl,\"chicken, rice, broccoli\",Cook the rice then the chicken.,example.com/1\n" +
		"Chocolate Cake,\"flour, cocoa, sugar\",Bake it.,\n"
	_, err := NewIngestionService(store, embedder, IngestionOptions{BatchSize: 10}, zap.NewNop()).
		Ingest(ctx, strings.NewReader(csv))
	require.NoError(t, err)

	svc := NewRecipeSearchService(store, embedder, nil, zap.NewNop())
	out := svc.SearchRecipes(ctx, "chicken, rice", 2)

	entries := strings.Split(out, "\n\n")
	require.Len(t, entries, 2)
	assert.True(t, strings.HasPrefix(entries[0], "Recipe 1: Chicken Rice Bowl\n"))
	assert.Contains(t, entries[0], "Link: example.com/1")
	assert.True(t, strings.HasPrefix(entries[1], "Recipe 2: Chocolate Cake\n"))
	assert.Contains(t, entries[1], "Link: No link available")
}

func TestSearchRecipesEmbeddingFailure(t *testing.T) {
	embedder := new(testhelpers.MockEmbedder)
	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("model offline"))
	svc := NewRecipeSearchService(database.NewRecipeStore(testhelpers.NewSQLiteDB(t)), embedder, nil, zap.NewNop())

	assert.Equal(t, msgRecipesUnavailable, svc.SearchRecipes(context.Background(), "rice", 5))
}

func TestFormatRecipes(t *testing.T) {
	long := strings.Repeat("é", 250)
	out := FormatRecipes([]model.RecipeRecord{
		{Title: "", Document: long},
		{Title: "Soup", Document: "short", Link: "http://x"},
	})

	assert.Equal(t,
		"Recipe 1: Untitled Recipe\nIngredients & Directions: "+strings.Repeat("é", 200)+"...\nLink: No link available\n\n"+
			"Recipe 2: Soup\nIngredients & Directions: short...\nLink: http://x",
		out)
}
