// Package gorm provides the GORM-based implementation of the recipe store
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSlice stores a []string as JSON, portable across postgres and the
// sqlite test driver.
type StringSlice []string

// Scan implements sql.Scanner
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements driver.Valuer
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Vector stores an embedding as JSON. The ANN index over it lives in the
// SQL migrations; the application only reads and writes the raw values.
type Vector []float32

// Scan implements sql.Scanner
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, v)
	case string:
		return json.Unmarshal([]byte(raw), v)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}
}

// Value implements driver.Valuer
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// RecipeModel is the recipes table. The identifier carries the unique index
// that serializes concurrent inserts of the same recipe.
type RecipeModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Identifier string `gorm:"type:char(36);uniqueIndex;not null"`

	Title        string      `gorm:"size:500;not null;index"`
	Description  string      `gorm:"size:1000"`
	Instructions StringSlice `gorm:"type:text"`

	PrepMinutes  *int
	CookMinutes  *int
	TotalMinutes *int
	Servings     *float64

	Difficulty  string      `gorm:"size:20;index"`
	CuisineType string      `gorm:"size:100;index"`
	MealType    string      `gorm:"size:20;index"`
	DietaryTags StringSlice `gorm:"type:text"`

	SourceURL           string `gorm:"size:500"`
	SourcePostID        string `gorm:"size:100"`
	SourceAuthor        string `gorm:"size:100"`
	SourceScore         *int
	SourceCommentsCount *int

	Embedding Vector `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Ingredients []RecipeIngredientModel `gorm:"foreignKey:RecipeID"`
}

// TableName returns the table name
func (RecipeModel) TableName() string { return "recipes" }

// IngredientModel is the ingredients catalog.
type IngredientModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:200;uniqueIndex;not null"`
	Category    string `gorm:"size:100"`
	Description string `gorm:"size:500"`
	CreatedAt   time.Time
}

// TableName returns the table name
func (IngredientModel) TableName() string { return "ingredients" }

// MeasurementModel is the measurements catalog.
type MeasurementModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"size:50;uniqueIndex;not null"`
	Abbreviation string `gorm:"size:20"`
	UnitType     string `gorm:"size:20"` // volume, weight, count
	CreatedAt    time.Time
}

// TableName returns the table name
func (MeasurementModel) TableName() string { return "measurements" }

// RecipeIngredientModel is the junction between a recipe and its catalog
// entries, preserving the original ordering and the raw amount text.
type RecipeIngredientModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	RecipeID      int64  `gorm:"not null;uniqueIndex:idx_recipe_ingredient_order"`
	IngredientID  int64  `gorm:"not null;uniqueIndex:idx_recipe_ingredient_order"`
	MeasurementID *int64 ``
	Amount        *float64
	AmountText    string `gorm:"size:50"`
	Notes         string `gorm:"size:500"`
	OrderIndex    int    `gorm:"not null;uniqueIndex:idx_recipe_ingredient_order"`

	Ingredient  IngredientModel   `gorm:"foreignKey:IngredientID"`
	Measurement *MeasurementModel `gorm:"foreignKey:MeasurementID"`
}

// TableName returns the table name
func (RecipeIngredientModel) TableName() string { return "recipe_ingredients" }
