package parser

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const modelSystemPrompt = `You are a recipe extraction engine. Extract one recipe from the text you are given.

CRITICAL: Respond with ONLY a valid JSON object in this exact format:
{
  "title": "Recipe Name",
  "description": "Brief description, may be empty",
  "ingredients": [
    {"item": "ingredient name only", "amount": "1 1/2", "unit": "cups", "notes": "optional preparation notes"}
  ],
  "instructions": ["Step text", "Step text"],
  "prep_minutes": 15,
  "cook_minutes": 25,
  "total_minutes": 40,
  "servings": 4,
  "difficulty": "easy|medium|hard",
  "cuisine_type": "free-form cuisine",
  "meal_type": "breakfast|lunch|dinner|snack|dessert",
  "dietary_tags": ["vegetarian"]
}

Rules:
- NEVER put quantities or units inside the "item" field.
- NEVER list instruction sentences as ingredients.
- Numeric fields may be numbers or strings; ranges like "30-45" are allowed.
- Omit fields you cannot determine. Do not invent data.`

const modelRetryPrompt = `Your previous response was not valid JSON matching the schema. Respond again with ONLY the JSON object, no prose, no markdown fences.`

// Model is the model-assisted extraction track. It binds to the smallest
// possible provider surface and falls back to the pattern-based track after
// a failed re-prompt.
type Model struct {
	client  outbound.ModelClient
	local   *Local
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewModel creates the model-assisted parser. requestsPerSecond throttles
// provider calls below typical rate limits.
func NewModel(client outbound.ModelClient, local *Local, requestsPerSecond float64, logger *zap.Logger) *Model {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 0.8
	}
	return &Model{
		client:  client,
		local:   local,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger.Named("model-parser"),
	}
}

// Parse extracts a recipe via the provider. Schema failure triggers one
// stricter re-prompt; a second failure falls back to the local parser so a
// batch never stalls on one stubborn document.
func (m *Model) Parse(ctx context.Context, text string) (*recipe.Recipe, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	prompt := "Extract the recipe from this text:\n\n" + text
	out, err := m.client.Complete(ctx, modelSystemPrompt, prompt, 0.2)
	if err != nil {
		return nil, err
	}

	r, decodeErr := decodeModelOutput(out)
	if decodeErr != nil {
		m.logger.Warn("model output failed schema, re-prompting",
			zap.Error(decodeErr))
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		out, err = m.client.Complete(ctx, modelSystemPrompt, prompt+"\n\n"+modelRetryPrompt, 0.0)
		if err != nil {
			return nil, err
		}
		r, decodeErr = decodeModelOutput(out)
	}
	if decodeErr != nil {
		m.logger.Warn("model output failed schema twice, falling back to local parser",
			zap.Error(decodeErr))
		return m.local.Parse(text), nil
	}

	Repair(r)
	return r, nil
}

// decodeModelOutput finds the JSON object in the completion and decodes it
// against the lenient schema. Models sometimes wrap JSON in prose or fences.
func decodeModelOutput(out string) (*recipe.Recipe, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start == -1 || end <= start {
		return nil, apperrors.NewSchemaFailureError("no JSON object in completion", nil)
	}
	var loose looseRecipe
	if err := json.Unmarshal([]byte(out[start:end+1]), &loose); err != nil {
		return nil, err
	}
	if strings.TrimSpace(loose.Title) == "" {
		return nil, recipe.ErrEmptyTitle
	}
	return loose.toRecipe(), nil
}
