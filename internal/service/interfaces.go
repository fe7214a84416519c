package service

import (
	"context"

	"github.com/pageza/nutritionist/backend/internal/model"
)

// Embedder maps texts to fixed-dimension vectors. Ingestion and search must
// use the same implementation so that distances are comparable.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Completer is a generative text service: prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VisionExtractor lists the foods visible in an image.
type VisionExtractor interface {
	ExtractFoods(ctx context.Context, image []byte, mimeType string) (string, error)
}

// NutritionFetcher looks a food up in the external nutrition database.
type NutritionFetcher interface {
	SearchFood(ctx context.Context, name string) (*model.NutritionRecord, error)
}

// NutritionRepository is the persistent nutrition cache.
type NutritionRepository interface {
	FindByName(ctx context.Context, name string) (*model.NutritionRecord, error)
	Insert(ctx context.Context, rec *model.NutritionRecord) error
}

// NutritionLookup resolves one normalized food name.
type NutritionLookup interface {
	LookupNutrition(ctx context.Context, name string) (*model.NutritionRecord, error)
}

// RecipeIndex answers nearest-neighbour queries over ingested recipes.
type RecipeIndex interface {
	NearestRecipes(ctx context.Context, embedding []float32, k int) ([]model.RecipeRecord, error)
}

// RecipeWriter bulk-writes recipes by id.
type RecipeWriter interface {
	UpsertRecipes(ctx context.Context, records []model.RecipeRecord) error
}

// MealReporter produces a nutrition report for normalized foods.
type MealReporter interface {
	AnalyzeFoods(ctx context.Context, foods []string) string
}

// RecipeFinder produces a ranked recipe listing for a query.
type RecipeFinder interface {
	SearchRecipes(ctx context.Context, query string, topK int) string
}

// ConsultationStore keeps consultations for later retrieval.
type ConsultationStore interface {
	Save(ctx context.Context, c *Consultation) error
	Get(ctx context.Context, id string) (*Consultation, error)
}

// INutritionService is implemented by NutritionService.
type INutritionService interface {
	NutritionLookup
}

// INutritionist is the recommendation surface used by the HTTP layer.
type INutritionist interface {
	Recommend(ctx context.Context, req RecommendationRequest) (*Consultation, error)
	GetConsultation(ctx context.Context, id string) (*Consultation, error)
	AnalyzeProgress(ctx context.Context, nutritionSummary, goal, diet string) string
}

// IMealAnalyzer is implemented by MealAnalyzer.
type IMealAnalyzer interface {
	AnalyzeMeal(ctx context.Context, mealText string) string
	MealReporter
}

// IInputProcessor is implemented by InputProcessor.
type IInputProcessor interface {
	ProcessInput(ctx context.Context, text string, image []byte, mimeType string) (string, error)
	ExtractFoodsFromImage(ctx context.Context, image []byte, mimeType string) (string, error)
}

// IRecipeSearchService is implemented by RecipeSearchService.
type IRecipeSearchService interface {
	RecipeFinder
	FindRecipes(ctx context.Context, query string, topK int) ([]model.RecipeRecord, error)
}
