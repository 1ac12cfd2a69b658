// Package edamam implements recipe search against the Edamam Recipe Search API
package edamam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ProviderName identifies this provider in errors
const ProviderName = "edamam"

const defaultBaseURL = "https://api.edamam.com"

// Config configures the client
type Config struct {
	AppID   string
	AppKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements outbound.RecipeSearchProvider
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

var _ outbound.RecipeSearchProvider = (*Client)(nil)

// NewClient creates a new Edamam client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("edamam"),
	}
}

type searchResponse struct {
	Hits []struct {
		Recipe edamamRecipe `json:"recipe"`
	} `json:"hits"`
}

type nutrient struct {
	Quantity float64 `json:"quantity"`
}

type edamamRecipe struct {
	URI             string              `json:"uri"`
	Label           string              `json:"label"`
	URL             string              `json:"url"`
	Yield           float64             `json:"yield"`
	Calories        float64             `json:"calories"`
	IngredientLines []string            `json:"ingredientLines"`
	MealType        []string            `json:"mealType"`
	DietLabels      []string            `json:"dietLabels"`
	HealthLabels    []string            `json:"healthLabels"`
	CuisineType     []string            `json:"cuisineType"`
	TotalNutrients  map[string]nutrient `json:"totalNutrients"`
}

// Search returns up to limit recipes with per-serving macros
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*mealplan.Recipe, error) {
	params := url.Values{}
	params.Set("type", "public")
	params.Set("q", query)
	params.Set("app_id", c.cfg.AppID)
	params.Set("app_key", c.cfg.AppKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/recipes/v2?"+params.Encode(), nil)
	if err != nil {
		return nil, c.providerError(outbound.ProviderPermanent, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Edamam-Account-User", "dietcoach")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.providerError(outbound.ProviderTransient, 0, fmt.Errorf("failed to call Edamam: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.providerError(outbound.ProviderTransient, 0, fmt.Errorf("failed to read Edamam response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.providerError(outbound.ClassifyStatus(resp.StatusCode), resp.StatusCode,
			fmt.Errorf("edamam API error %d", resp.StatusCode))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, c.providerError(outbound.ProviderPermanent, 0, fmt.Errorf("failed to parse Edamam JSON: %w", err))
	}

	recipes := make([]*mealplan.Recipe, 0, min(limit, len(sr.Hits)))
	for _, hit := range sr.Hits {
		if len(recipes) == limit {
			break
		}
		recipes = append(recipes, toRecipe(hit.Recipe))
	}

	c.logger.Debug("Edamam search completed",
		zap.String("query", query),
		zap.Int("hits", len(sr.Hits)),
		zap.Int("returned", len(recipes)),
	)
	return recipes, nil
}

// toRecipe converts an Edamam hit to per-serving values
func toRecipe(er edamamRecipe) *mealplan.Recipe {
	yield := er.Yield
	if yield <= 0 {
		yield = 1
	}

	tags := make([]string, 0, len(er.DietLabels)+len(er.HealthLabels)+len(er.CuisineType))
	tags = append(tags, er.DietLabels...)
	tags = append(tags, er.HealthLabels...)
	tags = append(tags, er.CuisineType...)

	r := &mealplan.Recipe{
		Title:              er.Label,
		Ingredients:        er.IngredientLines,
		CaloriesPerServing: round1(er.Calories / yield),
		ProteinPerServing:  round1(er.TotalNutrients["PROCNT"].Quantity / yield),
		CarbsPerServing:    round1(er.TotalNutrients["CHOCDF"].Quantity / yield),
		FatPerServing:      round1(er.TotalNutrients["FAT"].Quantity / yield),
		MealType:           mealTypeOf(er.MealType),
		Tags:               tags,
		Source:             mealplan.SourceEdamam,
		Servings:           int(math.Max(1, math.Round(yield))),
		ExternalID:         externalID(er.URI),
		SourceURL:          er.URL,
	}
	r.Normalize()
	return r
}

// mealTypeOf picks the first Edamam meal type the planner knows.
// Edamam combines some values, e.g. "lunch/dinner".
func mealTypeOf(types []string) mealplan.MealType {
	for _, t := range types {
		for _, part := range strings.Split(t, "/") {
			if mt, err := mealplan.ParseMealType(part); err == nil {
				return mt
			}
		}
	}
	return ""
}

func externalID(uri string) string {
	if i := strings.LastIndex(uri, "#recipe_"); i >= 0 {
		return uri[i+len("#recipe_"):]
	}
	return uri
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (c *Client) providerError(kind outbound.ProviderErrorKind, status int, err error) error {
	return &outbound.ProviderError{Provider: ProviderName, Kind: kind, StatusCode: status, Err: err}
}
