package parser

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

// The model-assisted track returns shapes that mix numbers and strings.
// These tagged types absorb that looseness; nothing outside this package
// ever sees them.

// looseNumber is a numeric field that may arrive as a number, a string
// ("30-45 minutes"), or not at all.
type looseNumber struct {
	raw     string
	present bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		n.raw, n.present = str, true
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.raw, n.present = strconv.FormatFloat(f, 'f', -1, 64), true
		return nil
	}
	// Tolerate anything else; the coercion will yield absent.
	n.raw, n.present = s, true
	return nil
}

func (n looseNumber) Minutes() *int {
	if !n.present {
		return nil
	}
	return recipe.CoerceMinutes(n.raw)
}

func (n looseNumber) Servings() *float64 {
	if !n.present {
		return nil
	}
	return recipe.CoerceServings(n.raw)
}

// looseInstruction accepts either a plain string or the structured
// {step, title, description} shape carried by some sources.
type looseInstruction struct {
	text string
}

func (li *looseInstruction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		li.text = s
		return nil
	}
	var obj struct {
		Step        int    `json:"step"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Title != "" && obj.Description != "" {
		li.text = obj.Title + ": " + obj.Description
	} else if obj.Description != "" {
		li.text = obj.Description
	} else {
		li.text = obj.Title
	}
	return nil
}

type looseIngredient struct {
	Item   string      `json:"item"`
	Amount looseNumber `json:"amount"`
	Unit   string      `json:"unit"`
	Notes  string      `json:"notes"`
}

type looseRecipe struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Ingredients  []looseIngredient  `json:"ingredients"`
	Instructions []looseInstruction `json:"instructions"`
	PrepMinutes  looseNumber        `json:"prep_minutes"`
	CookMinutes  looseNumber        `json:"cook_minutes"`
	TotalMinutes looseNumber        `json:"total_minutes"`
	Servings     looseNumber        `json:"servings"`
	Difficulty   string             `json:"difficulty"`
	CuisineType  string             `json:"cuisine_type"`
	MealType     string             `json:"meal_type"`
	DietaryTags  []string           `json:"dietary_tags"`
}

// toRecipe converts the loose shape to the canonical record. Unknown enum
// values and mixed numerics normalize here; the repair pass then cleans the
// ingredient rows.
func (lr *looseRecipe) toRecipe() *recipe.Recipe {
	r := &recipe.Recipe{
		Title:        recipe.StripMarkdown(lr.Title),
		Description:  strings.TrimSpace(lr.Description),
		PrepMinutes:  lr.PrepMinutes.Minutes(),
		CookMinutes:  lr.CookMinutes.Minutes(),
		TotalMinutes: lr.TotalMinutes.Minutes(),
		Servings:     lr.Servings.Servings(),
		Difficulty:   recipe.NormalizeDifficulty(lr.Difficulty),
		CuisineType:  strings.TrimSpace(lr.CuisineType),
		MealType:     recipe.NormalizeMealType(lr.MealType),
		DietaryTags:  lr.DietaryTags,
	}
	for _, li := range lr.Ingredients {
		amount := ""
		if li.Amount.present {
			amount = li.Amount.raw
		}
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Item:   strings.TrimSpace(li.Item),
			Amount: amount,
			Unit:   strings.TrimSpace(li.Unit),
			Notes:  strings.TrimSpace(li.Notes),
		})
	}
	for _, li := range lr.Instructions {
		if s := strings.TrimSpace(li.text); s != "" {
			r.Instructions = append(r.Instructions, s)
		}
	}
	return r
}
