// Package recipe contains the canonical recipe model and its invariants.
package recipe

import (
	"fmt"
	"strings"
)

// EmbeddingDim is the fixed length of a recipe embedding vector.
const EmbeddingDim = 384

// PlaceholderIngredient marks a recipe whose source text listed no parseable
// ingredients. Records that consist only of placeholders are rejected at load.
const PlaceholderIngredient = "Ingredients listed in recipe text"

// MinIngredients is the minimum number of valid ingredient rows a recipe
// needs to pass the load-time validation gate.
const MinIngredients = 2

// Difficulty levels (closed set)
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Meal types (closed set)
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
	MealDessert   = "dessert"
)

// Ingredient is one ordered row of a recipe's ingredient list.
// Amount stays a string so ranges like "2-4" survive until the store
// coerces them to a numeric low end.
type Ingredient struct {
	Item   string `json:"item"`
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// IsPlaceholder reports whether the row is the no-ingredients marker.
func (i Ingredient) IsPlaceholder() bool {
	return i.Item == PlaceholderIngredient
}

// Recipe is the canonical record produced by the parsers and exchanged
// through staged JSON files. Field names match the staged file format.
type Recipe struct {
	Identifier   string       `json:"identifier"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`

	PrepMinutes  *int     `json:"prep_minutes,omitempty"`
	CookMinutes  *int     `json:"cook_minutes,omitempty"`
	TotalMinutes *int     `json:"total_minutes,omitempty"`
	Servings     *float64 `json:"servings,omitempty"`

	Difficulty  string   `json:"difficulty,omitempty"`
	CuisineType string   `json:"cuisine_type,omitempty"`
	MealType    string   `json:"meal_type,omitempty"`
	DietaryTags []string `json:"dietary_tags,omitempty"`

	SourceURL           string `json:"source_url,omitempty"`
	SourcePostID        string `json:"source_post_id,omitempty"`
	SourceAuthor        string `json:"source_author,omitempty"`
	SourceScore         *int   `json:"source_score,omitempty"`
	SourceCommentsCount *int   `json:"source_comments_count,omitempty"`

	// Not part of the staged handoff; attached during search sync.
	Embedding []float32 `json:"-"`
}

// Normalize collapses whitespace in the title and recomputes the identifier
// when it is missing. It never fails; bad input is left for Validate.
func (r *Recipe) Normalize() {
	r.Title = CollapseWhitespace(r.Title)
	if r.Identifier == "" && r.Title != "" {
		r.Identifier = Identifier(r.Title, r.SourceHint()).String()
	}
}

// SourceHint returns the hint that distinguishes same-titled recipes.
// Feed items carry their post ID; everything else falls back to the URL.
func (r *Recipe) SourceHint() string {
	if r.SourcePostID != "" {
		return "reddit:" + r.SourcePostID
	}
	return r.SourceURL
}

// ValidIngredients returns the ingredient rows that are not placeholders.
func (r *Recipe) ValidIngredients() []Ingredient {
	valid := make([]Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if !ing.IsPlaceholder() && strings.TrimSpace(ing.Item) != "" {
			valid = append(valid, ing)
		}
	}
	return valid
}

// Validate enforces the load-time gate: non-empty title, at least
// MinIngredients non-placeholder rows, and a well-formed embedding when one
// is present. Violations are recoverable; callers log and skip the record.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	valid := r.ValidIngredients()
	if len(valid) == 0 {
		return ErrNoIngredients
	}
	if len(valid) < MinIngredients {
		return fmt.Errorf("%w: %d valid ingredients", ErrTooFewIngredients, len(valid))
	}
	if len(r.Embedding) > 0 && len(r.Embedding) != EmbeddingDim {
		return fmt.Errorf("%w: got %d", ErrBadEmbedding, len(r.Embedding))
	}
	return nil
}

// EmbeddingText builds the sentence handed to the embedding model:
// the title followed by the ingredient items, order preserved, no amounts.
func (r *Recipe) EmbeddingText() string {
	items := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.ValidIngredients() {
		items = append(items, ing.Item)
	}
	if len(items) == 0 {
		return r.Title
	}
	return r.Title + ". " + strings.Join(items, ", ")
}

// CollapseWhitespace trims and collapses internal runs of whitespace.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
