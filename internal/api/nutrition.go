package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/nutritionist/backend/internal/service"
	"go.uber.org/zap"
)

const maxImageSize = 10 << 20

// NutritionHandler serves meal nutrition reports
type NutritionHandler struct {
	meals service.IMealAnalyzer
	input service.IInputProcessor
	log   *zap.Logger
}

func NewNutritionHandler(meals service.IMealAnalyzer, input service.IInputProcessor, log *zap.Logger) *NutritionHandler {
	return &NutritionHandler{meals: meals, input: input, log: log}
}

// RegisterRoutes registers the nutrition routes
func (h *NutritionHandler) RegisterRoutes(router *gin.RouterGroup) {
	nutrition := router.Group("/nutrition")
	{
		nutrition.POST("", h.AnalyzeMeal)
		nutrition.POST("/image", h.AnalyzeImage)
	}
}

type mealRequest struct {
	Meal string `json:"meal"`
}

type mealResponse struct {
	Foods  []string `json:"foods"`
	Report string   `json:"report"`
}

// AnalyzeMeal reports nutrition for a free-text meal description. A blank
// meal is answered with guidance rather than an error.
func (h *NutritionHandler) AnalyzeMeal(c *gin.Context) {
	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	foods := service.ExtractFoodTokens(req.Meal)
	if foods == nil {
		foods = []string{}
	}
	c.JSON(http.StatusOK, mealResponse{
		Foods:  foods,
		Report: h.meals.AnalyzeMeal(c.Request.Context(), req.Meal),
	})
}

// AnalyzeImage extracts the foods from an uploaded meal photo and reports
// their nutrition
func (h *NutritionHandler) AnalyzeImage(c *gin.Context) {
	data, mimeType, err := readImage(c, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.input.ExtractFoodsFromImage(c.Request.Context(), data, mimeType)
	if err != nil {
		respondError(c, err)
		return
	}

	foods := service.ExtractFoodTokens(list)
	if foods == nil {
		foods = []string{}
	}
	c.JSON(http.StatusOK, mealResponse{
		Foods:  foods,
		Report: h.meals.AnalyzeFoods(c.Request.Context(), foods),
	})
}

// readImage loads the multipart "image" field. When required is false a
// missing field yields nil data and no error.
func readImage(c *gin.Context, required bool) ([]byte, string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if !required && errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil
		}
		return nil, "", errors.New("image file is required")
	}
	if header.Size > maxImageSize {
		return nil, "", errors.New("image is larger than 10MB")
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", errors.New("failed to read image")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, "", errors.New("failed to read image")
	}
	if len(data) == 0 {
		return nil, "", errors.New("image is empty")
	}
	if len(data) > maxImageSize {
		return nil, "", errors.New("image is larger than 10MB")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", errors.New("file is not an image")
	}
	return data, mimeType, nil
}
