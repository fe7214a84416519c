package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pageza/nutritionist/backend/internal/metrics"
	"go.uber.org/zap"
)

var (
	goalLabels = map[string]string{
		"lose":     "weight loss",
		"maintain": "weight maintenance",
		"gain":     "weight gain",
	}
	dietLabels = map[string]string{
		"vegetarian": "vegetarian",
		"vegan":      "vegan",
		"non-veg":    "non-vegetarian",
	}
)

// RecommendationRequest is a user's ingredients plus their preferences.
type RecommendationRequest struct {
	Input        string   `json:"input"`
	Goal         string   `json:"goal"`
	Diet         string   `json:"diet"`
	Restrictions []string `json:"restrictions"`
	Allergies    []string `json:"allergies"`
	Cuisine      string   `json:"cuisine"`
	Image        []byte   `json:"-"`
	ImageMIME    string   `json:"-"`
}

// Nutritionist combines nutrition data, similar recipes and a generative
// model into meal recommendations.
type Nutritionist struct {
	input   *InputProcessor
	meals   MealReporter
	recipes RecipeFinder
	llm     Completer
	store   ConsultationStore
	topK    int
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewNutritionist(input *InputProcessor, meals MealReporter, recipes RecipeFinder, llm Completer,
	store ConsultationStore, topK int, m *metrics.Metrics, log *zap.Logger) *Nutritionist {
	if topK <= 0 {
		topK = DefaultRecipeTopK
	}
	return &Nutritionist{
		input:   input,
		meals:   meals,
		recipes: recipes,
		llm:     llm,
		store:   store,
		topK:    topK,
		metrics: m,
		log:     log,
	}
}

// Recommend runs the full consultation pipeline. Only unusable input is an
// error. A failed model call is reported inside the recommendation text.
func (n *Nutritionist) Recommend(ctx context.Context, req RecommendationRequest) (*Consultation, error) {
	foods, err := n.input.ProcessInput(ctx, req.Input, req.Image, req.ImageMIME)
	if err != nil {
		return nil, err
	}
	ingredients := ExtractFoodTokens(foods)
	if len(ingredients) == 0 {
		return nil, &ValidationError{Field: "input", Message: "no valid foods detected"}
	}
	n.log.Info("building recommendation",
		zap.Strings("ingredients", ingredients),
		zap.String("goal", req.Goal),
		zap.String("diet", req.Diet))

	c := &Consultation{
		ID:           uuid.New().String(),
		Goal:         req.Goal,
		Diet:         req.Diet,
		Restrictions: req.Restrictions,
		Allergies:    req.Allergies,
		Cuisine:      req.Cuisine,
		Ingredients:  ingredients,
		CreatedAt:    time.Now(),
	}
	c.Nutrition = n.meals.AnalyzeFoods(ctx, ingredients)
	c.Recipes = n.recipes.SearchRecipes(ctx, strings.Join(ingredients, ", "), n.topK)

	text, err := n.complete(ctx, "recommendation", buildConsultationPrompt(req, ingredients, c.Nutrition, c.Recipes))
	if err != nil {
		n.log.Error("recommendation generation failed", zap.Error(err))
		c.Recommendation = fmt.Sprintf("Error generating AI response: %v", err)
	} else {
		c.Recommendation = text
	}

	if n.store != nil {
		if err := n.store.Save(ctx, c); err != nil {
			n.log.Warn("failed to save consultation", zap.String("id", c.ID), zap.Error(err))
		}
	}
	return c, nil
}

// GetConsultation returns ErrNotFound for unknown or expired ids.
func (n *Nutritionist) GetConsultation(ctx context.Context, id string) (*Consultation, error) {
	if n.store == nil {
		return nil, ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return n.store.Get(ctx, id)
}

// AnalyzeProgress judges how well a nutrition summary fits the user's goal.
func (n *Nutritionist) AnalyzeProgress(ctx context.Context, nutritionSummary, goal, diet string) string {
	text, err := n.complete(ctx, "progress", buildProgressPrompt(nutritionSummary, label(goalLabels, goal), label(dietLabels, diet)))
	if err != nil {
		n.log.Error("progress analysis failed", zap.Error(err))
		return fmt.Sprintf("Error analyzing diet progress: %v", err)
	}
	return text
}

func (n *Nutritionist) complete(ctx context.Context, kind, prompt string) (string, error) {
	if n.llm == nil {
		n.metrics.Completion(kind, ErrLLMNotConfigured)
		return "", ErrLLMNotConfigured
	}
	text, err := n.llm.Complete(ctx, prompt)
	n.metrics.Completion(kind, err)
	return text, err
}

func label(labels map[string]string, key string) string {
	if v, ok := labels[strings.ToLower(key)]; ok {
		return v
	}
	return key
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func listOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func buildConsultationPrompt(req RecommendationRequest, ingredients []string, nutrition, recipes string) string {
	allergies := listOr(req.Allergies, "None specified")
	cuisine := orDefault(req.Cuisine, "Flexible")

	var b strings.Builder
	fmt.Fprintf(&b, `# EXPERT AI NUTRITIONIST CONSULTATION

## USER PROFILE & GOALS
- **Primary Goal**: %s weight
- **Dietary Preference**: %s
- **Dietary Restrictions**: %s
- **Allergies**: %s
- **Cuisine Preference**: %s

## AVAILABLE INGREDIENTS
%s

## NUTRITIONAL ANALYSIS
%s

## RECIPE SUGGESTIONS (from database)
%s
`,
		capitalize(req.Goal),
		capitalize(req.Diet),
		listOr(req.Restrictions, "None specified"),
		allergies,
		cuisine,
		strings.Join(ingredients, ", "),
		nutrition,
		recipes,
	)

	fmt.Fprintf(&b, `
## YOUR TASK:
As an expert nutritionist, provide comprehensive meal recommendations that are:

### 1. GOAL-ORIENTED
- **For %[1]s**: Suggest meals that align with this specific weight goal
- **Calorie-aware**: Consider appropriate portion sizes and energy density
- **Macro-balanced**: Optimal protein/carb/fat ratios for the goal

### 2. PERSONALIZED
- Respect all dietary preferences and restrictions
- Accommodate allergies: %[2]s
- Consider cuisine preferences: %[3]s

### 3. PRACTICAL & ACTIONABLE
- Use primarily available ingredients
- Suggest minimal additional ingredients if needed
- Provide clear preparation guidance

## EXPECTED OUTPUT FORMAT:

**MEAL RECOMMENDATIONS**

### Option 1: [Creative Meal Name]
**Preparation**: [Brief step-by-step instructions]
**Nutritional Benefits**: [Why this supports %[1]s goal]
**Macro Breakdown**: [Approximate protein/carbs/fats]
**Additional Tips**: [Optional add-ons or substitutions]

### Option 2: [Creative Meal Name]
**Preparation**: [Brief step-by-step instructions]
**Nutritional Benefits**: [Why this supports %[1]s goal]
**Macro Breakdown**: [Approximate protein/carbs/fats]
**Additional Tips**: [Optional add-ons or substitutions]

**GOAL-SPECIFIC ADVICE**
[2-3 sentences of targeted nutrition advice for %[1]s]

**SHOPPING SUGGESTIONS**
[Minimal additional ingredients to enhance meals]

Keep the tone professional yet encouraging, and ensure all recommendations are evidence-based and practical for home cooking.
`, req.Goal, allergies, cuisine)

	return b.String()
}

func buildProgressPrompt(nutritionSummary, goal, diet string) string {
	return fmt.Sprintf(`# DIET PROGRESS ANALYSIS

## USER CONTEXT
- **Goal**: %s
- **Current Diet**: %s

## NUTRITION INFORMATION
%s

## YOUR TASK:
Analyze this meal/diet and determine if it aligns with the user's goals. Provide:

### 🎯 PROGRESS ASSESSMENT
- Is this meal helping or hindering their goal?
- Rate the alignment on a scale of 1-10
- Key strengths and weaknesses

### 📊 NUTRITIONAL ANALYSIS
- Macronutrient balance assessment
- Calorie appropriateness for the goal
- Missing or excessive nutrients

### 💡 ACTIONABLE RECOMMENDATIONS
- Specific changes needed (if any)
- What to continue doing
- What to adjust

### 🚨 RED FLAGS (if any)
- Any concerning nutritional patterns
- Potential health implications

### 📈 NEXT STEPS
- Immediate adjustments
- Long-term strategy

## OUTPUT FORMAT:
Keep it structured but conversational. Be encouraging but honest.
Use emojis to make it engaging.

Focus on evidence-based nutrition science and practical advice.
`, goal, diet, nutritionSummary)
}
