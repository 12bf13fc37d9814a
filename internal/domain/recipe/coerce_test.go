package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		none bool
	}{
		{in: "30", want: 30},
		{in: "30-45 minutes", want: 30},
		{in: "about 20 min", want: 20},
		{in: "1 hour", want: 1},
		{in: "a while", none: true},
		{in: "", none: true},
	}
	for _, tt := range tests {
		got := CoerceMinutes(tt.in)
		if tt.none {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		require.NotNil(t, got, "input %q", tt.in)
		assert.Equal(t, tt.want, *got, "input %q", tt.in)
	}
}

func TestCoerceServings(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		none bool
	}{
		{in: "6", want: 6},
		{in: "2-4", want: 2},
		{in: "4.5 servings", want: 4.5},
		{in: "serves many", none: true},
	}
	for _, tt := range tests {
		got := CoerceServings(tt.in)
		if tt.none {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		require.NotNil(t, got, "input %q", tt.in)
		assert.Equal(t, tt.want, *got, "input %q", tt.in)
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, DifficultyEasy, NormalizeDifficulty("super easy"))
	assert.Equal(t, DifficultyEasy, NormalizeDifficulty("Beginner friendly"))
	assert.Equal(t, DifficultyMedium, NormalizeDifficulty("Moderate"))
	assert.Equal(t, DifficultyHard, NormalizeDifficulty("quite challenging"))
	assert.Equal(t, "", NormalizeDifficulty("whatever"))
}

func TestNormalizeMealTypePriority(t *testing.T) {
	assert.Equal(t, MealDinner, NormalizeMealType("Dinner or lunch"))
	assert.Equal(t, MealBreakfast, NormalizeMealType("breakfast, maybe brunch"))
	assert.Equal(t, MealDessert, NormalizeMealType("dessert after lunch"))
	assert.Equal(t, MealSnack, NormalizeMealType("afternoon snack"))
	assert.Equal(t, "", NormalizeMealType("teatime"))
}

func TestStripMarkdown(t *testing.T) {
	assert.Equal(t, "Best Chili Ever", StripMarkdown("## **Best Chili Ever**"))
	assert.Equal(t, "salt & pepper", StripMarkdown("salt &amp; pepper"))
	assert.Equal(t, "watch here", StripMarkdown("watch [video] here"))
}
