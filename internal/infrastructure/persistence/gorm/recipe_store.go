package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeStore implements the idempotent recipe store on GORM.
type RecipeStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecipeStore creates a new recipe store
func NewRecipeStore(db *gorm.DB, logger *zap.Logger) outbound.RecipeStore {
	return &RecipeStore{db: db, logger: logger.Named("recipe-store")}
}

// Create inserts a recipe with the dedup policy: a row with the same
// identifier wins first, then a row with the same normalized title, and only
// then does an insert happen. The catalog upserts and junction rows share
// the insert transaction. A concurrent loser of the unique-index race
// observes the winner's row and reports already_existed.
func (s *RecipeStore) Create(ctx context.Context, r *recipe.Recipe) (outbound.CreateResult, error) {
	r.Normalize()
	if err := s.validateForInsert(r); err != nil {
		return outbound.CreateResult{}, err
	}

	if existing, pk, err := s.GetByIdentifier(ctx, r.Identifier); err == nil && existing != nil {
		return outbound.CreateResult{PrimaryKey: pk, Identifier: existing.Identifier, AlreadyExisted: true}, nil
	}
	if existing, pk, err := s.GetByTitle(ctx, r.Title); err == nil && existing != nil {
		return outbound.CreateResult{PrimaryKey: pk, Identifier: existing.Identifier, AlreadyExisted: true}, nil
	}

	model := RecipeToModel(r)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return s.insertIngredients(tx, model.ID, r.ValidIngredients())
	})
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race; the winner's row is the result.
			if existing, pk, getErr := s.GetByIdentifier(ctx, r.Identifier); getErr == nil && existing != nil {
				return outbound.CreateResult{PrimaryKey: pk, Identifier: existing.Identifier, AlreadyExisted: true}, nil
			}
		}
		return outbound.CreateResult{}, apperrors.NewDatabaseError("insert recipe", err).
			WithMetadata("identifier", r.Identifier)
	}

	s.logger.Info("recipe stored",
		zap.String("identifier", r.Identifier),
		zap.String("title", r.Title),
		zap.Int("ingredients", len(r.ValidIngredients())))

	return outbound.CreateResult{PrimaryKey: model.ID, Identifier: r.Identifier}, nil
}

// validateForInsert is the load-time gate. Violations are recoverable
// skips, never retried.
func (s *RecipeStore) validateForInsert(r *recipe.Recipe) error {
	if err := r.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error()).WithMetadata("identifier", r.Identifier)
	}
	return nil
}

func (s *RecipeStore) insertIngredients(tx *gorm.DB, recipeID int64, ings []recipe.Ingredient) error {
	for i, ing := range ings {
		name := strings.TrimSpace(ing.Item)
		if len(name) > skipIngredientLonger {
			continue
		}
		name = truncate(name, maxIngredientName)

		catalog := IngredientModel{Name: name}
		if err := tx.Where("name = ?", name).FirstOrCreate(&catalog).Error; err != nil {
			return err
		}

		row := RecipeIngredientModel{
			RecipeID:     recipeID,
			IngredientID: catalog.ID,
			Amount:       CoerceAmount(ing.Amount),
			AmountText:   truncate(ing.Amount, 50),
			Notes:        truncate(ing.Notes, maxNotesLen),
			OrderIndex:   i,
		}

		if m := measurementFor(ing.Unit); m != nil {
			if err := tx.Where("name = ?", m.Name).FirstOrCreate(m).Error; err != nil {
				return err
			}
			row.MeasurementID = &m.ID
		}

		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// Update replaces a stored recipe with a newer snapshot of the same
// identifier. Junction rows are rebuilt from scratch.
func (s *RecipeStore) Update(ctx context.Context, primaryKey int64, r *recipe.Recipe) error {
	r.Normalize()
	if err := s.validateForInsert(r); err != nil {
		return err
	}
	model := RecipeToModel(r)
	model.ID = primaryKey

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&RecipeModel{}).Where("id = ?", primaryKey).
			Omit(clause.Associations).Updates(model).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", primaryKey).Delete(&RecipeIngredientModel{}).Error; err != nil {
			return err
		}
		return s.insertIngredients(tx, primaryKey, r.ValidIngredients())
	})
	if err != nil {
		return apperrors.NewDatabaseError("update recipe", err).WithMetadata("identifier", r.Identifier)
	}
	return nil
}

// GetByIdentifier finds a recipe by its deterministic identifier.
func (s *RecipeStore) GetByIdentifier(ctx context.Context, identifier string) (*recipe.Recipe, int64, error) {
	return s.getOne(ctx, "identifier = ?", identifier)
}

// GetByTitle finds a recipe by normalized title, the dedup safety net.
func (s *RecipeStore) GetByTitle(ctx context.Context, title string) (*recipe.Recipe, int64, error) {
	normalized := recipe.CollapseWhitespace(title)
	return s.getOne(ctx, "LOWER(title) = LOWER(?)", normalized)
}

func (s *RecipeStore) getOne(ctx context.Context, query string, arg interface{}) (*recipe.Recipe, int64, error) {
	var model RecipeModel
	result := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Preload("Ingredients.Ingredient").
		Preload("Ingredients.Measurement").
		First(&model, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, 0, apperrors.NewNotFoundError("recipe")
		}
		return nil, 0, apperrors.NewDatabaseError("find recipe", result.Error)
	}
	return ModelToRecipe(&model), model.ID, nil
}

// GetByPrimaryKey finds a recipe by its store primary key.
func (s *RecipeStore) GetByPrimaryKey(ctx context.Context, primaryKey int64) (*recipe.Recipe, error) {
	r, _, err := s.getOne(ctx, "id = ?", primaryKey)
	return r, err
}

// SearchText runs relational full-text search. On postgres it uses the
// tsvector index; the sqlite test driver falls back to LIKE.
func (s *RecipeStore) SearchText(ctx context.Context, query string, filters outbound.SearchFilters, limit, offset int) ([]*recipe.Recipe, error) {
	db := s.db.WithContext(ctx).Model(&RecipeModel{}).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Preload("Ingredients.Ingredient").
		Preload("Ingredients.Measurement")

	if query != "" {
		if s.db.Dialector.Name() == "postgres" {
			db = db.Where(
				"to_tsvector('english', title || ' ' || COALESCE(description, '')) @@ plainto_tsquery('english', ?)",
				query,
			).Order(clause.Expr{
				SQL:  "ts_rank(to_tsvector('english', title || ' ' || COALESCE(description, '')), plainto_tsquery('english', ?)) DESC",
				Vars: []interface{}{query},
			})
		} else {
			like := "%" + strings.ToLower(query) + "%"
			db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
	}
	db = applyFilters(db, filters)

	if limit <= 0 {
		limit = 20
	}
	var models []RecipeModel
	if err := db.Limit(limit).Offset(offset).Find(&models).Error; err != nil {
		return nil, apperrors.NewDatabaseError("search recipes", err)
	}

	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		recipes[i] = ModelToRecipe(&models[i])
	}
	return recipes, nil
}

func applyFilters(db *gorm.DB, filters outbound.SearchFilters) *gorm.DB {
	if filters.Difficulty != "" {
		db = db.Where("difficulty = ?", filters.Difficulty)
	}
	if filters.CuisineType != "" {
		db = db.Where("cuisine_type = ?", filters.CuisineType)
	}
	if filters.MealType != "" {
		db = db.Where("meal_type = ?", filters.MealType)
	}
	if filters.MaxMinutes > 0 {
		db = db.Where("total_minutes <= ?", filters.MaxMinutes)
	}
	return db
}

// ListBatch streams rows for the search sync, ordered by primary key so
// batches never overlap.
func (s *RecipeStore) ListBatch(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error) {
	var models []RecipeModel
	err := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Preload("Ingredients.Ingredient").
		Preload("Ingredients.Measurement").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.NewDatabaseError("list recipes", err)
	}
	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		recipes[i] = ModelToRecipe(&models[i])
	}
	return recipes, nil
}

// Count returns the number of stored recipes.
func (s *RecipeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RecipeModel{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("count recipes", err)
	}
	return count, nil
}

// SaveEmbedding caches a freshly generated embedding on the recipe row.
func (s *RecipeStore) SaveEmbedding(ctx context.Context, identifier string, vector []float32) error {
	result := s.db.WithContext(ctx).Model(&RecipeModel{}).
		Where("identifier = ?", identifier).
		Update("embedding", Vector(vector))
	if result.Error != nil {
		return apperrors.NewDatabaseError("save embedding", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("recipe")
	}
	return nil
}

// Stats summarizes the store for the CLI.
func (s *RecipeStore) Stats(ctx context.Context) (*outbound.StoreStats, error) {
	stats := &outbound.StoreStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&RecipeModel{}).Count(&stats.Recipes).Error; err != nil {
		return nil, apperrors.NewDatabaseError("count recipes", err)
	}
	if err := db.Model(&IngredientModel{}).Count(&stats.Ingredients).Error; err != nil {
		return nil, apperrors.NewDatabaseError("count ingredients", err)
	}
	if err := db.Model(&MeasurementModel{}).Count(&stats.Measurements).Error; err != nil {
		return nil, apperrors.NewDatabaseError("count measurements", err)
	}
	db.Model(&RecipeModel{}).Where("cuisine_type <> ''").Distinct("cuisine_type").Count(&stats.DistinctCuisines)
	db.Model(&RecipeModel{}).Where("meal_type <> ''").Distinct("meal_type").Count(&stats.DistinctMeals)

	var avgs struct {
		Prep  float64
		Cook  float64
		Score float64
	}
	db.Model(&RecipeModel{}).
		Select("COALESCE(AVG(prep_minutes), 0) AS prep, COALESCE(AVG(cook_minutes), 0) AS cook, COALESCE(AVG(source_score), 0) AS score").
		Scan(&avgs)
	stats.AvgPrepMinutes = avgs.Prep
	stats.AvgCookMinutes = avgs.Cook
	stats.AvgScore = avgs.Score

	return stats, nil
}

// HealthCheck pings the database.
func (s *RecipeStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation detects unique-index conflicts across drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
