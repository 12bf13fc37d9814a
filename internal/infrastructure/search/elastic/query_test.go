package elastic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"github.com/alchemorsel/pipeline/internal/testutil"
)

func testVector() []float32 {
	return make([]float32, recipe.EmbeddingDim)
}

func TestBuildQueryTextMode(t *testing.T) {
	body, err := buildQuery(outbound.SearchQuery{Mode: outbound.SearchModeText, Text: "chickpea curry", Size: 5})
	require.NoError(t, err)

	assert.Equal(t, 5, body["size"])
	assert.NotContains(t, body, "knn")

	source := body["_source"].(map[string]any)
	assert.Equal(t, []string{"embedding"}, source["excludes"])

	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]any)
	require.Len(t, must, 1)
	mm := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "chickpea curry", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Equal(t, []string{"title^3", "description^2", "ingredients.name^2", "instructions"}, mm["fields"])
}

func TestBuildQueryDefaultsToTextMode(t *testing.T) {
	body, err := buildQuery(outbound.SearchQuery{Text: "soup"})
	require.NoError(t, err)
	assert.Equal(t, 10, body["size"])
	assert.Contains(t, body, "query")
	assert.NotContains(t, body, "knn")
}

func TestBuildQuerySemanticMode(t *testing.T) {
	body, err := buildQuery(outbound.SearchQuery{Mode: outbound.SearchModeSemantic, Vector: testVector(), Size: 5})
	require.NoError(t, err)

	assert.NotContains(t, body, "query")
	knn := body["knn"].(map[string]any)
	assert.Equal(t, "embedding", knn["field"])
	assert.Equal(t, 5, knn["k"])
	assert.Equal(t, minNumCandidates, knn["num_candidates"])
	assert.NotContains(t, knn, "boost")
}

func TestBuildQuerySemanticNumCandidatesScales(t *testing.T) {
	body, err := buildQuery(outbound.SearchQuery{Mode: outbound.SearchModeSemantic, Vector: testVector(), Size: 50})
	require.NoError(t, err)
	knn := body["knn"].(map[string]any)
	assert.Equal(t, 500, knn["num_candidates"])
}

func TestBuildQuerySemanticRejectsBadVector(t *testing.T) {
	_, err := buildQuery(outbound.SearchQuery{Mode: outbound.SearchModeSemantic, Vector: make([]float32, 10)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "384")
}

func TestBuildQueryHybridMode(t *testing.T) {
	body, err := buildQuery(outbound.SearchQuery{Mode: outbound.SearchModeHybrid, Text: "ramen", Vector: testVector(), Size: 10})
	require.NoError(t, err)

	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	should := boolQuery["should"].([]any)
	require.Len(t, should, 1)

	knn := body["knn"].(map[string]any)
	assert.Equal(t, 0.5, knn["boost"])
}

func TestBuildQueryHybridRequiresVector(t *testing.T) {
	_, err := buildQuery(outbound.SearchQuery{Mode: outbound.SearchModeHybrid, Text: "ramen"})
	assert.Error(t, err)
}

func TestBuildQueryUnknownMode(t *testing.T) {
	_, err := buildQuery(outbound.SearchQuery{Mode: "mystery"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestBuildQueryFilters(t *testing.T) {
	q := outbound.SearchQuery{
		Mode: outbound.SearchModeText,
		Text: "curry",
		Filters: outbound.SearchFilters{
			Difficulty:  "easy",
			CuisineType: "indian",
			MealType:    "dinner",
			DietaryTags: []string{"vegan", "gluten-free"},
			MaxMinutes:  45,
		},
	}
	body, err := buildQuery(q)
	require.NoError(t, err)

	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	filters := boolQuery["filter"].([]any)
	// One term clause per field plus one per dietary tag, range last.
	require.Len(t, filters, 6)

	assert.Equal(t, "vegan", filters[3].(map[string]any)["term"].(map[string]any)["dietary_tags"])
	assert.Equal(t, "gluten-free", filters[4].(map[string]any)["term"].(map[string]any)["dietary_tags"])

	last := filters[5].(map[string]any)["range"].(map[string]any)["total_minutes"].(map[string]any)
	assert.Equal(t, 45, last["lte"])
}

func TestBuildQueryKnnCarriesFilters(t *testing.T) {
	q := outbound.SearchQuery{
		Mode:    outbound.SearchModeSemantic,
		Vector:  testVector(),
		Filters: outbound.SearchFilters{Difficulty: "easy"},
	}
	body, err := buildQuery(q)
	require.NoError(t, err)
	knn := body["knn"].(map[string]any)
	require.Contains(t, knn, "filter")
	assert.Len(t, knn["filter"].([]any), 1)
}

func TestToDocumentEmbeddingGate(t *testing.T) {
	r := testutil.NewRecipe()
	r.Embedding = make([]float32, 100)
	assert.Nil(t, toDocument(r).Embedding)

	r.Embedding = testVector()
	assert.Len(t, toDocument(r).Embedding, recipe.EmbeddingDim)
}

func TestToDocumentSkipsPlaceholderRows(t *testing.T) {
	r := testutil.NewRecipe()
	r.Ingredients = []recipe.Ingredient{
		{Item: "chickpeas", Amount: "2", Unit: "cup"},
		{Item: recipe.PlaceholderIngredient},
		{Item: "coconut milk", Amount: "1", Unit: "can"},
	}

	doc := toDocument(r)
	require.Len(t, doc.Ingredients, 2)
	for _, ing := range doc.Ingredients {
		assert.NotEqual(t, recipe.PlaceholderIngredient, ing.Name)
	}
}

func TestIsMalformed(t *testing.T) {
	ok := testutil.NewRecipe()
	assert.False(t, isMalformed(ok))

	none := testutil.NewRecipe()
	none.Ingredients = nil
	assert.True(t, isMalformed(none))

	placeholder := testutil.NewRecipe()
	placeholder.Ingredients = []recipe.Ingredient{{Item: recipe.PlaceholderIngredient}}
	assert.True(t, isMalformed(placeholder))

	runOn := testutil.NewRecipe()
	runOn.Ingredients = []recipe.Ingredient{{Item: strings.Repeat("flour sugar butter ", 10)}}
	assert.True(t, isMalformed(runOn))

	single := testutil.NewRecipe()
	single.Ingredients = []recipe.Ingredient{{Item: "flour"}}
	assert.False(t, isMalformed(single))
}
