package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

func TestInferDifficultyFromProse(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"This one is super easy, ready in minutes.", recipe.DifficultyEasy},
		{"A quick weeknight dinner.", recipe.DifficultyEasy},
		{"Tempering the chocolate is the tricky part.", recipe.DifficultyHard},
		{"This dough needs proofing overnight.", recipe.DifficultyHard},
		{"Roast the vegetables until tender.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferDifficulty(tt.text), tt.text)
	}
}

func TestInferDietaryTags(t *testing.T) {
	tags := inferDietaryTags("A vegan, gluten-free weeknight staple.", []recipe.Ingredient{
		{Item: "chickpeas"},
	})
	assert.Contains(t, tags, "vegan")
	assert.Contains(t, tags, "gluten-free")

	tags = inferDietaryTags("Classic carbonara.", []recipe.Ingredient{
		{Item: "pancetta"},
		{Item: "eggs"},
	})
	assert.NotContains(t, tags, "vegetarian")

	tags = inferDietaryTags("Simple tomato soup.", []recipe.Ingredient{
		{Item: "tomatoes"},
		{Item: "basil"},
	})
	assert.Contains(t, tags, "vegetarian")
}
