// Package gorm: mapping between the canonical recipe and the table models.
package gorm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/parser"
)

// Truncation limits keep oversized source text from failing inserts.
// Items longer than the skip limit are dropped entirely, they are never
// real ingredients.
const (
	maxTitleLen          = 500
	maxDescriptionLen    = 1000
	maxIngredientName    = 200
	maxNotesLen          = 500
	skipIngredientLonger = 500
)

// The fraction branch comes first: the alternation is ordered, so with the
// integer branch leading, "1/2" would match as "1".
var leadingNumberRe = regexp.MustCompile(`\d+/\d+|\d+(?:\.\d+)?`)

// RecipeToModel converts a canonical recipe into the recipes row.
// Junction rows are built separately inside the insert transaction.
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	return &RecipeModel{
		Identifier:          r.Identifier,
		Title:               truncate(r.Title, maxTitleLen),
		Description:         truncate(r.Description, maxDescriptionLen),
		Instructions:        StringSlice(r.Instructions),
		PrepMinutes:         r.PrepMinutes,
		CookMinutes:         r.CookMinutes,
		TotalMinutes:        r.TotalMinutes,
		Servings:            r.Servings,
		Difficulty:          r.Difficulty,
		CuisineType:         r.CuisineType,
		MealType:            r.MealType,
		DietaryTags:         StringSlice(r.DietaryTags),
		SourceURL:           truncate(r.SourceURL, maxTitleLen),
		SourcePostID:        r.SourcePostID,
		SourceAuthor:        r.SourceAuthor,
		SourceScore:         r.SourceScore,
		SourceCommentsCount: r.SourceCommentsCount,
		Embedding:           Vector(r.Embedding),
	}
}

// ModelToRecipe converts a recipes row plus its preloaded junction rows
// back into the canonical shape.
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	r := &recipe.Recipe{
		Identifier:          m.Identifier,
		Title:               m.Title,
		Description:         m.Description,
		Instructions:        []string(m.Instructions),
		PrepMinutes:         m.PrepMinutes,
		CookMinutes:         m.CookMinutes,
		TotalMinutes:        m.TotalMinutes,
		Servings:            m.Servings,
		Difficulty:          m.Difficulty,
		CuisineType:         m.CuisineType,
		MealType:            m.MealType,
		DietaryTags:         []string(m.DietaryTags),
		SourceURL:           m.SourceURL,
		SourcePostID:        m.SourcePostID,
		SourceAuthor:        m.SourceAuthor,
		SourceScore:         m.SourceScore,
		SourceCommentsCount: m.SourceCommentsCount,
		Embedding:           []float32(m.Embedding),
	}
	for _, ri := range m.Ingredients {
		ing := recipe.Ingredient{
			Item:   ri.Ingredient.Name,
			Amount: ri.AmountText,
			Notes:  ri.Notes,
		}
		if ri.Measurement != nil {
			ing.Unit = ri.Measurement.Name
		}
		r.Ingredients = append(r.Ingredients, ing)
	}
	return r
}

// CoerceAmount turns a loose amount string into the numeric column value.
// The first number wins, so a range collapses to its low end and "1/2"
// becomes 0.5.
func CoerceAmount(amount string) *float64 {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil
	}
	// Mixed number "1 1/2"
	fields := strings.Fields(amount)
	if len(fields) >= 2 && strings.Contains(fields[1], "/") {
		whole, err1 := strconv.ParseFloat(fields[0], 64)
		frac, err2 := parseFraction(fields[1])
		if err1 == nil && err2 == nil {
			v := whole + frac
			return &v
		}
	}
	m := leadingNumberRe.FindString(amount)
	if m == "" {
		return nil
	}
	if strings.Contains(m, "/") {
		if v, err := parseFraction(m); err == nil {
			return &v
		}
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseFraction(s string) (float64, error) {
	parts := strings.SplitN(s, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0, err
	}
	return num / den, nil
}

// measurementFor resolves the catalog entry for a unit token.
func measurementFor(unit string) *MeasurementModel {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" {
		return nil
	}
	if info, ok := parser.LookupUnit(unit); ok {
		return &MeasurementModel{
			Name:         info.Canonical,
			Abbreviation: info.Abbreviation,
			UnitType:     string(info.Type),
		}
	}
	return &MeasurementModel{Name: unit, UnitType: string(parser.UnitCount)}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
