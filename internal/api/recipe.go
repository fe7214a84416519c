package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/nutritionist/backend/internal/service"
	"go.uber.org/zap"
)

const maxRecipeTopK = 50

// RecipeHandler serves similarity search over the ingested recipe corpus
type RecipeHandler struct {
	recipes service.IRecipeSearchService
	topK    int
	log     *zap.Logger
}

func NewRecipeHandler(recipes service.IRecipeSearchService, topK int, log *zap.Logger) *RecipeHandler {
	if topK <= 0 {
		topK = service.DefaultRecipeTopK
	}
	return &RecipeHandler{recipes: recipes, topK: topK, log: log}
}

// RegisterRoutes registers the recipe routes
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/search", h.SearchRecipes)
	}
}

// SearchRecipes handles GET /recipes/search?q=...&k=...&format=json
func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	topK := h.topK
	if raw := c.Query("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 || k > maxRecipeTopK {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be an integer between 1 and 50"})
			return
		}
		topK = k
	}

	if c.Query("format") == "json" {
		recipes, err := h.recipes.FindRecipes(c.Request.Context(), query, topK)
		if err != nil {
			h.log.Error("recipe search failed", zap.String("query", query), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recipe search is currently unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"recipes": recipes, "count": len(recipes)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": h.recipes.SearchRecipes(c.Request.Context(), query, topK)})
}
