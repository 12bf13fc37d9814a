package gorm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	gormstore "github.com/alchemorsel/pipeline/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"github.com/alchemorsel/pipeline/internal/testutil"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
)

func newStore(t *testing.T) outbound.RecipeStore {
	t.Helper()
	db, err := testutil.OpenTestDB()
	require.NoError(t, err)
	return gormstore.NewRecipeStore(db, zap.NewNop())
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	r := testutil.NewRecipe(testutil.WithTitle("Spicy Chickpea Curry"))

	res, err := store.Create(ctx, r)
	require.NoError(t, err)
	assert.False(t, res.AlreadyExisted)
	assert.NotZero(t, res.PrimaryKey)
	assert.Equal(t, r.Identifier, res.Identifier)

	got, pk, err := store.GetByIdentifier(ctx, r.Identifier)
	require.NoError(t, err)
	assert.Equal(t, res.PrimaryKey, pk)
	assert.Equal(t, "Spicy Chickpea Curry", got.Title)
	require.Len(t, got.Ingredients, len(r.Ingredients))
	// Junction rows come back in their original order.
	for i := range r.Ingredients {
		assert.Equal(t, r.Ingredients[i].Item, got.Ingredients[i].Item)
		assert.Equal(t, r.Ingredients[i].Amount, got.Ingredients[i].Amount)
	}
}

func TestCreateIsIdempotentByIdentifier(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	r := testutil.NewRecipe()

	first, err := store.Create(ctx, r)
	require.NoError(t, err)

	second, err := store.Create(ctx, r)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.PrimaryKey, second.PrimaryKey)
	assert.Equal(t, first.Identifier, second.Identifier)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateDeduplicatesByTitle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	r1 := testutil.NewRecipe(testutil.WithTitle("Best Chili Ever"), testutil.WithPostID("aaa1111"))
	first, err := store.Create(ctx, r1)
	require.NoError(t, err)

	// Different source post, different identifier, same normalized title.
	r2 := testutil.NewRecipe(testutil.WithTitle("best chili ever"), testutil.WithPostID("bbb2222"))
	require.NotEqual(t, r1.Identifier, r2.Identifier)

	second, err := store.Create(ctx, r2)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.PrimaryKey, second.PrimaryKey)
	assert.Equal(t, r1.Identifier, second.Identifier)
}

func TestCreateRejectsInvalidRecipe(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	noTitle := testutil.NewRecipe()
	noTitle.Title = ""
	_, err := store.Create(ctx, noTitle)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))

	tooFew := testutil.NewRecipe()
	tooFew.Ingredients = tooFew.Ingredients[:1]
	_, err = store.Create(ctx, tooFew)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetByIdentifierNotFound(t *testing.T) {
	store := newStore(t)
	_, _, err := store.GetByIdentifier(context.Background(), "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestSaveEmbeddingRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	r := testutil.NewRecipe()
	_, err := store.Create(ctx, r)
	require.NoError(t, err)

	vector := make([]float32, recipe.EmbeddingDim)
	for i := range vector {
		vector[i] = float32(i) / recipe.EmbeddingDim
	}
	require.NoError(t, store.SaveEmbedding(ctx, r.Identifier, vector))

	got, _, err := store.GetByIdentifier(ctx, r.Identifier)
	require.NoError(t, err)
	require.Len(t, got.Embedding, recipe.EmbeddingDim)
	assert.InDelta(t, vector[100], got.Embedding[100], 1e-6)
}

func TestSaveEmbeddingUnknownIdentifier(t *testing.T) {
	store := newStore(t)
	err := store.SaveEmbedding(context.Background(), "missing", make([]float32, recipe.EmbeddingDim))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestListBatchPaginates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.Create(ctx, testutil.NewRecipe(testutil.WithTitle(fmt.Sprintf("Batch Recipe %d", i))))
		require.NoError(t, err)
	}

	page1, err := store.ListBatch(ctx, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page3, err := store.ListBatch(ctx, 4, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	empty, err := store.ListBatch(ctx, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchTextWithFilters(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	curry := testutil.NewRecipe(testutil.WithTitle("Spicy Chickpea Curry"))
	curry.Difficulty = recipe.DifficultyEasy
	thirty := 30
	curry.TotalMinutes = &thirty
	_, err := store.Create(ctx, curry)
	require.NoError(t, err)

	stew := testutil.NewRecipe(testutil.WithTitle("Slow Beef Stew"))
	stew.Difficulty = recipe.DifficultyHard
	ninety := 90
	stew.TotalMinutes = &ninety
	_, err = store.Create(ctx, stew)
	require.NoError(t, err)

	got, err := store.SearchText(ctx, "chickpea", outbound.SearchFilters{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Spicy Chickpea Curry", got[0].Title)

	got, err = store.SearchText(ctx, "", outbound.SearchFilters{Difficulty: recipe.DifficultyHard}, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Slow Beef Stew", got[0].Title)

	got, err = store.SearchText(ctx, "", outbound.SearchFilters{MaxMinutes: 60}, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Spicy Chickpea Curry", got[0].Title)
}

func TestStats(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, testutil.NewRecipe(testutil.WithTitle(fmt.Sprintf("Stats Recipe %d", i))))
		require.NoError(t, err)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Recipes)
	assert.Greater(t, stats.Ingredients, int64(0))
	assert.Greater(t, stats.Measurements, int64(0))
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"2", 2},
		{"1/2", 0.5},
		{"1 1/2", 1.5},
		{"2-3", 2},
		{"4.5", 4.5},
	}
	for _, tt := range tests {
		got := gormstore.CoerceAmount(tt.in)
		require.NotNil(t, got, tt.in)
		assert.Equal(t, tt.want, *got, tt.in)
	}
	assert.Nil(t, gormstore.CoerceAmount(""))
	assert.Nil(t, gormstore.CoerceAmount("a pinch"))
}
