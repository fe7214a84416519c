package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pageza/nutritionist/backend/internal/metrics"
	"github.com/pageza/nutritionist/backend/internal/testhelpers"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMeals struct {
	got []string
}

func (s *stubMeals) AnalyzeFoods(_ context.Context, foods []string) string {
	s.got = foods
	return "NUTRITION REPORT"
}

type stubRecipes struct {
	query string
	topK  int
}

func (s *stubRecipes) SearchRecipes(_ context.Context, query string, topK int) string {
	s.query, s.topK = query, topK
	return "RECIPE LIST"
}

type memoryConsultations struct {
	mu   sync.Mutex
	data map[string]*Consultation
}

func (m *memoryConsultations) Save(_ context.Context, c *Consultation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]*Consultation{}
	}
	m.data[c.ID] = c
	return nil
}

func (m *memoryConsultations) Get(_ context.Context, id string) (*Consultation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func newTestNutritionist(llm Completer, store ConsultationStore) (*Nutritionist, *stubMeals, *stubRecipes) {
	meals := &stubMeals{}
	recipes := &stubRecipes{}
	n := NewNutritionist(NewInputProcessor(nil, zap.NewNop()), meals, recipes, llm, store, 5, metrics.New(), zap.NewNop())
	return n, meals, recipes
}

func TestRecommend(t *testing.T) {
	llm := new(testhelpers.MockCompleter)
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "- **Primary Goal**: Lose weight") &&
			strings.Contains(prompt, "- **Dietary Restrictions**: low-carb, high-protein") &&
			strings.Contains(prompt, "- **Allergies**: nuts") &&
			strings.Contains(prompt, "- **Cuisine Preference**: Flexible") &&
			strings.Contains(prompt, "## AVAILABLE INGREDIENTS\nbanana, chicken breast") &&
			strings.Contains(prompt, "NUTRITION REPORT") &&
			strings.Contains(prompt, "RECIPE LIST") &&
			strings.Contains(prompt, "- **For lose**:")
	})).Return("Option 1: grilled chicken", nil)

	store := &memoryConsultations{}
	n, meals, recipes := newTestNutritionist(llm, store)

	c, err := n.Recommend(context.Background(), RecommendationRequest{
		Input:        "1 banana, 200g chicken breast",
		Goal:         "lose",
		Diet:         "non-veg",
		Restrictions: []string{"low-carb", "high-protein"},
		Allergies:    []string{"nuts"},
	})
	require.NoError(t, err)
	llm.AssertExpectations(t)

	assert.Equal(t, []string{"banana", "chicken breast"}, meals.got)
	assert.Equal(t, "banana, chicken breast", recipes.query)
	assert.Equal(t, 5, recipes.topK)
	assert.Equal(t, "Option 1: grilled chicken", c.Recommendation)

	stored, err := n.GetConsultation(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, stored)
}

func TestRecommendCompletionFailure(t *testing.T) {
	llm := new(testhelpers.MockCompleter)
	llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	n, _, _ := newTestNutritionist(llm, nil)
	c, err := n.Recommend(context.Background(), RecommendationRequest{Input: "rice", Goal: "gain", Diet: "vegan"})
	require.NoError(t, err)
	assert.Equal(t, "Error generating AI response: quota exceeded", c.Recommendation)
}

func TestRecommendRejectsEmptyInput(t *testing.T) {
	n, _, _ := newTestNutritionist(nil, nil)

	_, err := n.Recommend(context.Background(), RecommendationRequest{Goal: "lose", Diet: "vegan"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = n.Recommend(context.Background(), RecommendationRequest{Input: "2 cups", Goal: "lose", Diet: "vegan"})
	require.ErrorAs(t, err, &ve)
}

func TestGetConsultationUnknownID(t *testing.T) {
	n, _, _ := newTestNutritionist(nil, &memoryConsultations{})

	_, err := n.GetConsultation(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = n.GetConsultation(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeProgress(t *testing.T) {
	llm := new(testhelpers.MockCompleter)
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "- **Goal**: weight maintenance") &&
			strings.Contains(prompt, "- **Current Diet**: non-vegetarian") &&
			strings.Contains(prompt, "## NUTRITION INFORMATION\nRICE DOC")
	})).Return("8/10", nil)

	n, _, _ := newTestNutritionist(llm, nil)
	assert.Equal(t, "8/10", n.AnalyzeProgress(context.Background(), "RICE DOC", "maintain", "non-veg"))
	llm.AssertExpectations(t)
}

func TestAnalyzeProgressUnknownLabelsPassThrough(t *testing.T) {
	llm := new(testhelpers.MockCompleter)
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "- **Goal**: bulk") && strings.Contains(prompt, "- **Current Diet**: keto")
	})).Return("ok", nil)

	n, _, _ := newTestNutritionist(llm, nil)
	assert.Equal(t, "ok", n.AnalyzeProgress(context.Background(), "x", "bulk", "keto"))
}

func TestAnalyzeProgressFailure(t *testing.T) {
	n, _, _ := newTestNutritionist(nil, nil)
	assert.Equal(t,
		"Error analyzing diet progress: generative model is not configured",
		n.AnalyzeProgress(context.Background(), "x", "lose", "vegan"))
}

func TestRedisConsultationStore(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("Skipping Redis-dependent test - REDIS_HOST not set")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_HOST") + ":" + port})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisConsultationStore(client)
	c := &Consultation{ID: uuid.NewString(), Goal: "lose", Ingredients: []string{"rice"}, Recommendation: "eat"}
	require.NoError(t, store.Save(ctx, c))
	t.Cleanup(func() { client.Del(ctx, consultationKey(c.ID)) })

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Recommendation, got.Recommendation)
	assert.Equal(t, c.Ingredients, got.Ingredients)

	ttl, err := client.TTL(ctx, consultationKey(c.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, consultationTTL-time.Minute)

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCapitalizeKeepsMultiByteRunes(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"lose":  "Lose",
		"VEGAN": "Vegan",
		"élevé": "Élevé",
		"ñame":  "Ñame",
		"素食":    "素食",
	}
	for in, want := range cases {
		got := capitalize(in)
		assert.True(t, utf8.ValidString(got), in)
		assert.Equal(t, want, got, in)
	}
}
