package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

func TestParseIngredientSmart(t *testing.T) {
	tests := []struct {
		name string
		line string
		want recipe.Ingredient
	}{
		{
			name: "amount unit item",
			line: "2 cups flour",
			want: recipe.Ingredient{Item: "flour", Amount: "2", Unit: "cup"},
		},
		{
			name: "fraction with unit",
			line: "1/2 tsp salt",
			want: recipe.Ingredient{Item: "salt", Amount: "1/2", Unit: "teaspoon"},
		},
		{
			name: "mixed number",
			line: "1 1/2 cups beef stock",
			want: recipe.Ingredient{Item: "beef stock", Amount: "1 1/2", Unit: "cup"},
		},
		{
			name: "capitalized item after bare amount",
			line: "1 Eggplant cut into cubes",
			want: recipe.Ingredient{Item: "Eggplant", Amount: "1", Notes: "cut into cubes"},
		},
		{
			name: "glued unit",
			line: "4oz cream cheese",
			want: recipe.Ingredient{Item: "cream cheese", Amount: "4", Unit: "ounce"},
		},
		{
			name: "range preserved",
			line: "2-3 tbsp soy sauce",
			want: recipe.Ingredient{Item: "soy sauce", Amount: "2-3", Unit: "tablespoon"},
		},
		{
			name: "unicode fraction",
			line: "½ cup sugar",
			want: recipe.Ingredient{Item: "sugar", Amount: "1/2", Unit: "cup"},
		},
		{
			name: "fl oz compound unit",
			line: "2 fl oz gin",
			want: recipe.Ingredient{Item: "gin", Amount: "2", Unit: "fl oz"},
		},
		{
			name: "comma splits notes",
			line: "3 cups flour, sifted",
			want: recipe.Ingredient{Item: "flour", Amount: "3", Unit: "cup", Notes: "sifted"},
		},
		{
			name: "bullet prefix stripped",
			line: "- 2 cloves garlic",
			want: recipe.Ingredient{Item: "garlic", Amount: "2", Unit: "clove"},
		},
		{
			name: "no amount at all",
			line: "salt and pepper",
			want: recipe.Ingredient{Item: "salt and pepper"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIngredientSmart(tt.line))
		})
	}
}

// reassembleIngredient renders a parsed tuple back into a plain text line.
// Capitalized no-unit items carry their notes inline, the way source posts
// write them; everything else separates notes with a comma.
func reassembleIngredient(ing recipe.Ingredient) string {
	parts := make([]string, 0, 3)
	if ing.Amount != "" {
		parts = append(parts, ing.Amount)
	}
	if ing.Unit != "" {
		parts = append(parts, ing.Unit)
	}
	parts = append(parts, ing.Item)
	text := strings.Join(parts, " ")
	if ing.Notes == "" {
		return text
	}
	if ing.Unit == "" && isCapitalized(ing.Item) {
		return text + " " + ing.Notes
	}
	return text + ", " + ing.Notes
}

func TestParseIngredientRoundTrip(t *testing.T) {
	tuples := []recipe.Ingredient{
		{Item: "flour", Amount: "2", Unit: "cup"},
		{Item: "salt", Amount: "1/2", Unit: "teaspoon"},
		{Item: "beef stock", Amount: "1 1/2", Unit: "cup"},
		{Item: "soy sauce", Amount: "2-3", Unit: "tablespoon"},
		{Item: "gin", Amount: "2", Unit: "fl oz"},
		{Item: "flour", Amount: "3", Unit: "cup", Notes: "sifted"},
		{Item: "Eggplant", Amount: "1", Notes: "cut into cubes"},
		{Item: "egg", Amount: "2", Notes: "beaten"},
		{Item: "salt and pepper"},
	}
	for _, want := range tuples {
		t.Run(want.Item, func(t *testing.T) {
			text := reassembleIngredient(want)
			assert.Equal(t, want, ParseIngredientSmart(text), "re-parsing %q", text)
		})
	}
}

func TestParseIngredientSmartUnitCanonical(t *testing.T) {
	got := ParseIngredientSmart("2 tablespoons olive oil")
	assert.Equal(t, "olive oil", got.Item)
	assert.Equal(t, "2", got.Amount)
	assert.Equal(t, "tablespoon", got.Unit)
}
