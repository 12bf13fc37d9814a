package parser

import (
	"regexp"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

// cookingVerbs open instruction sentences that leak into ingredient lists.
var cookingVerbs = []string{
	"preheat", "bake", "stir", "cook", "fill", "toss", "drain", "sift",
	"coat", "serve", "remove", "combine", "bring to", "deglaze", "warm",
	"heat", "mix", "whisk", "fold", "pour", "place", "add the", "let",
	"simmer", "boil", "fry", "saute", "sauté", "roast", "grill", "chill",
	"refrigerate", "garnish", "transfer", "repeat", "reduce", "season the",
}

// sectionHeaders label sub-lists, not ingredients.
var sectionHeaders = []string{
	"for the", "for filling", "for topping", "for garnish", "for serving",
	"preparation", "instructions", "directions", "method", "ingredients",
}

// standaloneAnnotations are qualifiers with no ingredient of their own.
var standaloneAnnotations = []string{
	"to taste", "optional", "as needed", "as required", "divided",
}

var (
	servesAnnotationRe = regexp.MustCompile(`(?i)^\(?serves?\s+\d+\)?$`)
	markupLeakRe       = regexp.MustCompile(`\*\*|&amp;|\[video\]|\[x200b\]|&#x200b;`)
	actionVerbRe       = regexp.MustCompile(`(?i)\b(bake|stir|cook|mix|heat|pour|place|combine|serve|add|remove|whisk|boil|simmer)\b`)
)

const maxIngredientLen = 200

// KeepIngredient reports whether a parsed row is a plausible ingredient.
// The filter drops instruction sentences, section headers, standalone
// annotations, oversize lines, and leaked markup.
func KeepIngredient(ing recipe.Ingredient) bool {
	item := strings.TrimSpace(ing.Item)
	if item == "" {
		return false
	}
	lower := strings.ToLower(item)

	for _, verb := range cookingVerbs {
		if strings.HasPrefix(lower, verb+" ") || lower == verb {
			return false
		}
	}
	for _, header := range sectionHeaders {
		if strings.HasPrefix(lower, header) {
			return false
		}
	}
	for _, ann := range standaloneAnnotations {
		if lower == ann {
			return false
		}
	}
	if servesAnnotationRe.MatchString(item) {
		return false
	}
	if markupLeakRe.MatchString(item) {
		return false
	}
	if len(item) > maxIngredientLen {
		return false
	}
	// A full sentence: ends with a period, six or more words, and an action
	// verb somewhere inside.
	if strings.HasSuffix(item, ".") && len(strings.Fields(item)) >= 6 && actionVerbRe.MatchString(item) {
		return false
	}
	return true
}

// FilterIngredients applies KeepIngredient to a parsed list, preserving
// order. An empty result is replaced by the single placeholder row so the
// low-quality source is visible downstream.
func FilterIngredients(ings []recipe.Ingredient) []recipe.Ingredient {
	kept := make([]recipe.Ingredient, 0, len(ings))
	for _, ing := range ings {
		if KeepIngredient(ing) {
			kept = append(kept, ing)
		}
	}
	if len(kept) == 0 {
		return []recipe.Ingredient{{Item: recipe.PlaceholderIngredient}}
	}
	return kept
}
