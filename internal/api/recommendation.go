package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/nutritionist/backend/internal/service"
	"go.uber.org/zap"
)

// RecommendationHandler serves consultations and diet progress analysis
type RecommendationHandler struct {
	nutritionist service.INutritionist
	meals        service.IMealAnalyzer
	log          *zap.Logger
}

func NewRecommendationHandler(nutritionist service.INutritionist, meals service.IMealAnalyzer, log *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{nutritionist: nutritionist, meals: meals, log: log}
}

// RegisterRoutes registers the recommendation routes
func (h *RecommendationHandler) RegisterRoutes(router *gin.RouterGroup) {
	recommendations := router.Group("/recommendations")
	{
		recommendations.POST("", h.CreateRecommendation)
		recommendations.GET("/:id", h.GetRecommendation)
	}
	router.POST("/progress", h.AnalyzeProgress)
}

// recommendationRequest binds from JSON or from a multipart form that may
// also carry an "image" file
type recommendationRequest struct {
	Input        string   `json:"input" form:"input"`
	Goal         string   `json:"goal" form:"goal"`
	Diet         string   `json:"diet" form:"diet"`
	Restrictions []string `json:"restrictions" form:"restrictions"`
	Allergies    []string `json:"allergies" form:"allergies"`
	Cuisine      string   `json:"cuisine" form:"cuisine"`
}

// CreateRecommendation runs a consultation and returns it with its id
func (h *RecommendationHandler) CreateRecommendation(c *gin.Context) {
	var req recommendationRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := service.RecommendationRequest{
		Input:        req.Input,
		Goal:         req.Goal,
		Diet:         req.Diet,
		Restrictions: req.Restrictions,
		Allergies:    req.Allergies,
		Cuisine:      req.Cuisine,
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		data, mimeType, err := readImage(c, false)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in.Image, in.ImageMIME = data, mimeType
	}

	consultation, err := h.nutritionist.Recommend(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, consultation)
}

// GetRecommendation returns a stored consultation
func (h *RecommendationHandler) GetRecommendation(c *gin.Context) {
	consultation, err := h.nutritionist.GetConsultation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultation)
}

type progressRequest struct {
	Meal string `json:"meal" binding:"required"`
	Goal string `json:"goal"`
	Diet string `json:"diet"`
}

// AnalyzeProgress reports nutrition for a meal and judges it against the
// user's goal
func (h *RecommendationHandler) AnalyzeProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meal is required"})
		return
	}

	nutrition := h.meals.AnalyzeMeal(c.Request.Context(), req.Meal)
	c.JSON(http.StatusOK, gin.H{
		"nutrition": nutrition,
		"analysis":  h.nutritionist.AnalyzeProgress(c.Request.Context(), nutrition, req.Goal, req.Diet),
	})
}
