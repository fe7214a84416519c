package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pageza/nutritionist/backend/internal/model"
	"go.uber.org/zap"
)

const (
	// USDASource tags records fetched from FoodData Central.
	USDASource = "USDA"

	usdaPageSize = 5
)

// Nutrient names as reported by FoodData Central.
const (
	nutrientEnergy  = "Energy"
	nutrientProtein = "Protein"
	nutrientFat     = "Total lipid (fat)"
	nutrientCarbs   = "Carbohydrate, by difference"
)

type usdaSearchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FdcID         int64          `json:"fdcId"`
	Description   string         `json:"description"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string   `json:"nutrientName"`
	UnitName     string   `json:"unitName"`
	Value        *float64 `json:"value"`
}

// USDAClient searches the FoodData Central foods endpoint.
type USDAClient struct {
	client *resty.Client
	apiKey string
	log    *zap.Logger
}

func NewUSDAClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *USDAClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &USDAClient{client: client, apiKey: apiKey, log: log}
}

// SearchFood returns the best match for name from the curated data tiers.
// Zero candidates is ErrNotFound. Anything else that goes wrong is a
// *TransportError.
func (c *USDAClient) SearchFood(ctx context.Context, name string) (*model.NutritionRecord, error) {
	var result usdaSearchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(url.Values{
			"query":    {name},
			"pageSize": {strconv.Itoa(usdaPageSize)},
			"api_key":  {c.apiKey},
			"dataType": {"Foundation", "SR Legacy"},
		}).
		SetResult(&result).
		Get("/foods/search")
	if err != nil {
		c.log.Warn("usda request failed", zap.String("food", name), zap.Error(err))
		return nil, &TransportError{Op: "usda search", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		c.log.Warn("usda returned error status",
			zap.String("food", name),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 200)))
		return nil, &TransportError{
			Op:         "usda search",
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%s", http.StatusText(resp.StatusCode())),
		}
	}
	if len(result.Foods) == 0 {
		c.log.Info("no usda match", zap.String("food", name))
		return nil, ErrNotFound
	}

	return buildNutritionRecord(name, result.Foods[0]), nil
}

func buildNutritionRecord(name string, food usdaFood) *model.NutritionRecord {
	rec := &model.NutritionRecord{
		Name:        strings.ToLower(strings.TrimSpace(name)),
		ExternalID:  strconv.FormatInt(food.FdcID, 10),
		Description: food.Description,
		Source:      USDASource,
	}
	if food.FdcID == 0 {
		rec.ExternalID = rec.Name
	}
	if rec.Description == "" {
		rec.Description = "Unknown"
	}

	for _, n := range food.FoodNutrients {
		if n.Value == nil {
			continue
		}
		v := model.Known(*n.Value)
		switch n.NutrientName {
		case nutrientEnergy:
			// SR Legacy lists energy twice; only the kcal entry is wanted
			if n.UnitName == "" || strings.EqualFold(n.UnitName, "kcal") {
				rec.Energy = v
			}
		case nutrientProtein:
			rec.Protein = v
		case nutrientFat:
			rec.Fat = v
		case nutrientCarbs:
			rec.Carbs = v
		}
	}

	rec.Document = fmt.Sprintf("%s (FDC ID: %s): Energy: %s kcal, Protein: %s g, Fat: %s g, Carbs: %s g",
		strings.ToUpper(rec.Description), rec.ExternalID,
		rec.Energy, rec.Protein, rec.Fat, rec.Carbs)
	return rec
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
