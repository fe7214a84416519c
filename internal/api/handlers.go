package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/nutritionist/backend/internal/metrics"
	"github.com/pageza/nutritionist/backend/internal/service"
	"go.uber.org/zap"
)

// Services holds everything the HTTP handlers call into
type Services struct {
	Meals        service.IMealAnalyzer
	Input        service.IInputProcessor
	Recipes      service.IRecipeSearchService
	Nutritionist service.INutritionist
	RecipeTopK   int
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Nutritionist API is running",
		"version": "v1.0.0",
	})
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svc Services, m *metrics.Metrics, log *zap.Logger) {
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := router.Group("/api/v1")
	NewNutritionHandler(svc.Meals, svc.Input, log).RegisterRoutes(v1)
	NewRecipeHandler(svc.Recipes, svc.RecipeTopK, log).RegisterRoutes(v1)
	NewRecommendationHandler(svc.Nutritionist, svc.Meals, log).RegisterRoutes(v1)
}
