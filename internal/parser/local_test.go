package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"go.uber.org/zap"
)

func newLocal() *Local {
	return NewLocal(zap.NewNop())
}

const structuredPost = `# Weeknight Chickpea Curry

Prep time: 10 minutes
Cook time: 30-45 minutes
Servings: 4

Ingredients:
- 2 cups chickpeas
- 1 can coconut milk
- 1 Eggplant cut into cubes
- 2 tbsp curry powder

Instructions:
1. Heat oil in a large pan.
2. Add the curry powder and toast briefly.
3. Simmer everything until thick.
`

func TestLocalParseStructuredPost(t *testing.T) {
	r := newLocal().Parse(structuredPost)

	assert.Equal(t, "Weeknight Chickpea Curry", r.Title)
	require.NotNil(t, r.PrepMinutes)
	assert.Equal(t, 10, *r.PrepMinutes)
	require.NotNil(t, r.CookMinutes)
	assert.Equal(t, 30, *r.CookMinutes)
	require.NotNil(t, r.TotalMinutes)
	assert.Equal(t, 40, *r.TotalMinutes)
	require.NotNil(t, r.Servings)
	assert.Equal(t, 4.0, *r.Servings)

	require.Len(t, r.Ingredients, 4)
	assert.Equal(t, "chickpeas", r.Ingredients[0].Item)
	assert.Equal(t, "coconut milk", r.Ingredients[1].Item)
	assert.Equal(t, "Eggplant", r.Ingredients[2].Item)
	assert.Equal(t, "cut into cubes", r.Ingredients[2].Notes)
	assert.Equal(t, "curry powder", r.Ingredients[3].Item)

	require.Len(t, r.Instructions, 3)
	assert.Equal(t, "Heat oil in a large pan.", r.Instructions[0])

	assert.NotEmpty(t, r.Identifier)
}

func TestLocalParseInlineBullets(t *testing.T) {
	post := `Title: Miso Soup

Ingredients:
・4 cups dashi ・2 tbsp miso paste ・1 lb tofu

Instructions:
- Warm the dashi.
- Whisk in the miso.
`
	r := newLocal().Parse(post)

	assert.Equal(t, "Miso Soup", r.Title)
	require.Len(t, r.Ingredients, 3)
	assert.Equal(t, "dashi", r.Ingredients[0].Item)
	assert.Equal(t, "miso paste", r.Ingredients[1].Item)
	assert.Equal(t, "tofu", r.Ingredients[2].Item)
}

func TestLocalParseUnstructuredTextGuessesSections(t *testing.T) {
	post := `My grandmother's weekend pancakes

2 cups flour
2 eggs
1 cup milk

Whisk everything together until smooth and fry in a buttered pan.
`
	r := newLocal().Parse(post)

	assert.Equal(t, "My grandmother's weekend pancakes", r.Title)
	require.GreaterOrEqual(t, len(r.Ingredients), 3)
	assert.Equal(t, "flour", r.Ingredients[0].Item)
	require.NotEmpty(t, r.Instructions)
}

func TestLocalParseGarbageYieldsPlaceholder(t *testing.T) {
	r := newLocal().Parse("lol")

	assert.Equal(t, "Untitled Recipe", r.Title)
	require.Len(t, r.Ingredients, 1)
	assert.True(t, r.Ingredients[0].IsPlaceholder())
	assert.Error(t, r.Validate())
}

func TestLocalParseCapsListLengths(t *testing.T) {
	post := "Ingredients:\n"
	for i := 0; i < 50; i++ {
		post += "- 1 cup filler ingredient\n"
	}
	r := newLocal().Parse(post)
	assert.LessOrEqual(t, len(r.Ingredients), 30)
}

func TestLocalParseServesAnnotationExcluded(t *testing.T) {
	post := `Title: Quick Omelette

Ingredients:
- 3 eggs
- 1 tbsp butter
- (Serves 2)

Instructions:
- Whisk the eggs.
`
	r := newLocal().Parse(post)
	require.Len(t, r.Ingredients, 2)
	for _, ing := range r.Ingredients {
		assert.NotContains(t, ing.Item, "Serves")
	}
}

func TestRepairIngredientQuantityInItem(t *testing.T) {
	got := RepairIngredient(recipe.Ingredient{Item: "1/2 cups beef stock"})
	assert.Equal(t, "beef stock", got.Item)
	assert.Equal(t, "1/2", got.Amount)
	assert.Equal(t, "cup", got.Unit)
}

func TestRepairIngredientCleanRowUntouched(t *testing.T) {
	in := recipe.Ingredient{Item: "beef stock", Amount: "1/2", Unit: "cup"}
	assert.Equal(t, in, RepairIngredient(in))
}

func TestRepairIsIdempotent(t *testing.T) {
	r := &recipe.Recipe{
		Title: "**Beef Stew**",
		Ingredients: []recipe.Ingredient{
			{Item: "2 cups beef stock"},
			{Item: "1 Onion diced"},
		},
		Instructions: []string{"**Brown the beef.**"},
		Difficulty:   "super easy",
		MealType:     "Dinner or lunch",
		SourcePostID: "p1",
	}
	Repair(r)

	assert.Equal(t, "Beef Stew", r.Title)
	assert.Equal(t, recipe.DifficultyEasy, r.Difficulty)
	assert.Equal(t, recipe.MealDinner, r.MealType)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "beef stock", r.Ingredients[0].Item)
	assert.Equal(t, "2", r.Ingredients[0].Amount)

	snapshot := *r
	Repair(r)
	assert.Equal(t, snapshot.Title, r.Title)
	assert.Equal(t, snapshot.Ingredients, r.Ingredients)
	assert.Equal(t, snapshot.Instructions, r.Instructions)
}
