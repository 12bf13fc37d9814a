package parser

import (
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

// inferDifficulty scans prose for difficulty cues when no explicit field is
// present. Technique-heavy vocabulary pushes toward hard.
func inferDifficulty(text string) string {
	lower := strings.ToLower(text)
	if containsAny(lower, "super easy", "so easy", "very easy", "really simple", "foolproof", "beginner") {
		return recipe.DifficultyEasy
	}
	if containsAny(lower, "advanced", "challenging", "tricky", "temperamental", "sous vide", "tempering", "laminate", "proofing overnight") {
		return recipe.DifficultyHard
	}
	if containsAny(lower, "easy", "simple", "quick") {
		return recipe.DifficultyEasy
	}
	if containsAny(lower, "difficult", "hard", "complex") {
		return recipe.DifficultyHard
	}
	return ""
}

// cuisineKeywords maps a cuisine label to vocabulary that signals it.
// A cuisine needs two hits in the body or one in the title.
var cuisineKeywords = map[string][]string{
	"Italian":        {"italian", "pasta", "risotto", "parmesan", "parmigiano", "pancetta", "marinara", "pesto", "gnocchi", "sicilian"},
	"Mexican":        {"mexican", "taco", "tortilla", "salsa", "enchilada", "queso", "jalapeno", "cilantro lime"},
	"Chinese":        {"chinese", "stir fry", "stir-fry", "soy sauce", "wok", "szechuan", "hoisin", "dumpling"},
	"Japanese":       {"japanese", "miso", "matcha", "teriyaki", "sushi", "ramen", "dashi", "mirin"},
	"Indian":         {"indian", "curry", "masala", "tikka", "garam", "naan", "dal", "paneer"},
	"Thai":           {"thai", "pad thai", "coconut milk", "lemongrass", "fish sauce", "galangal"},
	"French":         {"french", "bechamel", "béchamel", "ratatouille", "croissant", "bourguignon", "roux"},
	"Greek":          {"greek", "feta", "tzatziki", "gyro", "phyllo", "kalamata"},
	"Spanish":        {"spanish", "paella", "chorizo", "tapas", "saffron"},
	"Korean":         {"korean", "kimchi", "gochujang", "bulgogi", "bibimbap"},
	"Vietnamese":     {"vietnamese", "pho", "banh mi", "nuoc cham"},
	"Mediterranean":  {"mediterranean", "hummus", "tahini", "falafel", "couscous"},
	"Middle Eastern": {"middle eastern", "za'atar", "shawarma", "harissa", "sumac"},
	"American":       {"american", "bbq", "barbecue", "mac and cheese", "cornbread", "buffalo", "ranch"},
}

func inferCuisine(title, text string) string {
	titleLower := strings.ToLower(title)
	bodyLower := strings.ToLower(text)
	best, bestHits := "", 0
	for cuisine, words := range cuisineKeywords {
		hits := 0
		for _, w := range words {
			if strings.Contains(titleLower, w) {
				return cuisine
			}
			if strings.Contains(bodyLower, w) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = cuisine, hits
		}
	}
	if bestHits >= 2 {
		return best
	}
	return ""
}

// Meal-type scoring. Main-course indicators outweigh dessert vocabulary when
// both appear, so a sausage traybake with a sweet glaze stays a dinner.
var mealKeywords = map[string][]string{
	recipe.MealBreakfast: {"breakfast", "pancake", "waffle", "oatmeal", "granola", "brunch", "french toast", "omelet", "omelette"},
	recipe.MealLunch:     {"lunch", "sandwich", "wrap", "salad", "soup"},
	recipe.MealDinner:    {"dinner", "supper", "main course", "entree", "entrée"},
	recipe.MealSnack:     {"snack", "dip", "bites", "appetizer", "finger food"},
	recipe.MealDessert:   {"dessert", "cake", "cookie", "cookies", "brownie", "mousse", "pudding", "ice cream", "sweet treat", "frosting", "tart"},
}

var mainCourseIndicators = []string{
	"meat", "chicken", "beef", "pork", "lamb", "fish", "shrimp",
	"pasta", "rice", "noodle", "curry", "brat", "sausage", "steak",
}

const mainCourseWeight = 2

func scoreMealType(title, text string) string {
	lower := strings.ToLower(title + "\n" + text)
	scores := map[string]int{}
	for meal, words := range mealKeywords {
		for _, w := range words {
			scores[meal] += strings.Count(lower, w)
		}
	}
	for _, w := range mainCourseIndicators {
		scores[recipe.MealDinner] += strings.Count(lower, w) * mainCourseWeight
	}

	best, bestScore := "", 0
	for _, meal := range []string{recipe.MealDinner, recipe.MealBreakfast, recipe.MealDessert, recipe.MealLunch, recipe.MealSnack} {
		if scores[meal] > bestScore {
			best, bestScore = meal, scores[meal]
		}
	}
	return best
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var dietaryClaims = map[string][]string{
	"vegetarian":  {"vegetarian"},
	"vegan":       {"vegan", "plant-based", "plant based"},
	"gluten-free": {"gluten-free", "gluten free"},
	"dairy-free":  {"dairy-free", "dairy free", "lactose-free"},
	"keto":        {"keto", "ketogenic", "low-carb", "low carb"},
	"paleo":       {"paleo"},
}

var animalProducts = []string{
	"chicken", "beef", "pork", "lamb", "bacon", "sausage", "ham",
	"fish", "salmon", "tuna", "shrimp", "anchovy", "pancetta",
	"prosciutto", "turkey", "duck", "veal", "gelatin",
}

// inferDietaryTags collects explicit claims from the text plus a vegetarian
// inference when no ingredient names an animal product.
func inferDietaryTags(text string, ings []recipe.Ingredient) []string {
	lower := strings.ToLower(text)
	var tags []string
	seen := map[string]bool{}
	for tag, words := range dietaryClaims {
		if containsAny(lower, words...) && !seen[tag] {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	if !seen["vegetarian"] && !seen["vegan"] && len(ings) > 0 {
		meatFree := true
		for _, ing := range ings {
			if ing.IsPlaceholder() {
				meatFree = false
				break
			}
			if containsAny(strings.ToLower(ing.Item), animalProducts...) {
				meatFree = false
				break
			}
		}
		if meatFree {
			tags = append(tags, "vegetarian")
		}
	}
	return tags
}
