package parser

import (
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

// Repair is the deterministic post-processing applied to the output of
// either parser track before staging. It is idempotent: repairing an
// already-repaired record changes nothing.
func Repair(r *recipe.Recipe) {
	r.Title = recipe.StripMarkdown(r.Title)
	r.Description = recipe.StripMarkdown(r.Description)
	r.Difficulty = recipe.NormalizeDifficulty(r.Difficulty)
	r.MealType = recipe.NormalizeMealType(r.MealType)

	repaired := make([]recipe.Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		repaired = append(repaired, RepairIngredient(ing))
	}
	r.Ingredients = FilterIngredients(repaired)

	for i, step := range r.Instructions {
		r.Instructions[i] = recipe.StripMarkdown(step)
	}
	r.Normalize()
}

// RepairIngredient fixes rows whose item field swallowed the quantity:
// "1/2 cups beef stock" becomes item "beef stock" with the quantity split
// out. Rows that are already clean pass through untouched.
func RepairIngredient(ing recipe.Ingredient) recipe.Ingredient {
	item := strings.TrimSpace(recipe.StripMarkdown(ing.Item))
	if item == "" {
		return recipe.Ingredient{}
	}
	if !amountRe.MatchString(item) && !gluedUnitRe.MatchString(strings.Fields(item)[0]) {
		ing.Item = item
		return ing
	}

	parsed := ParseIngredientSmart(item)
	if parsed.Item == "" {
		ing.Item = item
		return ing
	}
	out := recipe.Ingredient{
		Item:   parsed.Item,
		Amount: firstNonEmpty(parsed.Amount, ing.Amount),
		Unit:   firstNonEmpty(parsed.Unit, ing.Unit),
		Notes:  joinNotes(parsed.Notes, ing.Notes),
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func joinNotes(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return a + "; " + b
	}
}
