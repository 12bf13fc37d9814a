// Package testutil provides test fixtures shared across packages.
package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	gormstore "github.com/alchemorsel/pipeline/internal/infrastructure/persistence/gorm"
)

// NewRecipe builds a valid recipe with a computed identifier.
func NewRecipe(opts ...func(*recipe.Recipe)) *recipe.Recipe {
	title := fmt.Sprintf("%s %s", gofakeit.AdjectiveDescriptive(), gofakeit.Dinner())
	r := &recipe.Recipe{
		Title:       title,
		Description: gofakeit.Sentence(8),
		Ingredients: []recipe.Ingredient{
			{Item: gofakeit.Vegetable(), Amount: "2", Unit: "cup"},
			{Item: gofakeit.Fruit(), Amount: "1"},
			{Item: "olive oil", Amount: "1", Unit: "tbsp"},
		},
		Instructions: []string{
			gofakeit.Sentence(6),
			gofakeit.Sentence(6),
		},
		SourcePostID: gofakeit.LetterN(7),
		SourceAuthor: gofakeit.Username(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Normalize()
	r.Identifier = recipe.Identifier(r.Title, r.SourceHint()).String()
	return r
}

// WithTitle pins the recipe title.
func WithTitle(title string) func(*recipe.Recipe) {
	return func(r *recipe.Recipe) {
		r.Title = title
	}
}

// WithPostID pins the source post ID.
func WithPostID(postID string) func(*recipe.Recipe) {
	return func(r *recipe.Recipe) {
		r.SourcePostID = postID
	}
}

var dbSeq int64

// OpenTestDB opens an isolated in-memory SQLite database with the store
// schema. Each call gets its own database so tests cannot contaminate each
// other.
func OpenTestDB() (*gorm.DB, error) {
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single pooled connection serializes
	// concurrent test transactions instead of surfacing busy errors.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&gormstore.RecipeModel{},
		&gormstore.IngredientModel{},
		&gormstore.MeasurementModel{},
		&gormstore.RecipeIngredientModel{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
