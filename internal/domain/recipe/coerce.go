package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

// Parsers emit loose values: "30-45 minutes", "2-4", "super easy",
// "Dinner or lunch". Everything funnels through the coercions below before a
// record is staged, so the loose shapes never leave the parser layer.

var (
	firstIntRe    = regexp.MustCompile(`\d+`)
	firstNumberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	markdownRe    = regexp.MustCompile(`\*\*|__|` + "`" + `|\[video\]|\[x200b\]|&#x200b;`)
)

// CoerceMinutes extracts a non-negative minute count from a loose value.
// The first integer wins; a range collapses to its low end.
func CoerceMinutes(s string) *int {
	m := firstIntRe.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// CoerceServings extracts a non-negative serving count, fractional allowed.
func CoerceServings(s string) *float64 {
	m := firstNumberRe.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// NormalizeDifficulty maps free-form difficulty text onto the closed set
// by substring match. Unknown values normalize to absent.
func NormalizeDifficulty(s string) string {
	lower := strings.ToLower(s)
	switch {
	case containsAny(lower, "easy", "simple", "beginner", "quick"):
		return DifficultyEasy
	case containsAny(lower, "medium", "moderate", "intermediate"):
		return DifficultyMedium
	case containsAny(lower, "hard", "difficult", "advanced", "complex", "challenging"):
		return DifficultyHard
	default:
		return ""
	}
}

// mealTypePriority orders substring matches so that main-course indicators
// beat the rest when a value names several meals ("Dinner or lunch").
var mealTypePriority = []string{MealDinner, MealBreakfast, MealDessert, MealLunch, MealSnack}

// NormalizeMealType maps free-form meal text onto the closed set.
func NormalizeMealType(s string) string {
	lower := strings.ToLower(s)
	for _, meal := range mealTypePriority {
		if strings.Contains(lower, meal) {
			return meal
		}
	}
	return ""
}

// StripMarkdown removes markup leaked from source text into string fields.
func StripMarkdown(s string) string {
	s = markdownRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.TrimLeft(s, "# ")
	return CollapseWhitespace(s)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
