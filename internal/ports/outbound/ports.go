// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces the pipeline uses to reach external systems.
package outbound

import (
	"context"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

// CreateResult reports the outcome of an idempotent store insert.
type CreateResult struct {
	PrimaryKey     int64
	Identifier     string
	AlreadyExisted bool
}

// SearchFilters narrows text search in the store and the index.
type SearchFilters struct {
	Difficulty  string
	CuisineType string
	MealType    string
	DietaryTags []string
	MaxMinutes  int
}

// StoreStats summarizes the relational store for the CLI.
type StoreStats struct {
	Recipes          int64
	Ingredients      int64
	Measurements     int64
	DistinctCuisines int64
	DistinctMeals    int64
	AvgPrepMinutes   float64
	AvgCookMinutes   float64
	AvgScore         float64
}

// RecipeStore is the idempotent persistence port. Create deduplicates by
// identifier first and by normalized title second; re-submission returns the
// existing primary key with AlreadyExisted set.
type RecipeStore interface {
	Create(ctx context.Context, r *recipe.Recipe) (CreateResult, error)
	Update(ctx context.Context, primaryKey int64, r *recipe.Recipe) error
	GetByIdentifier(ctx context.Context, identifier string) (*recipe.Recipe, int64, error)
	GetByTitle(ctx context.Context, title string) (*recipe.Recipe, int64, error)
	GetByPrimaryKey(ctx context.Context, primaryKey int64) (*recipe.Recipe, error)
	SearchText(ctx context.Context, query string, filters SearchFilters, limit, offset int) ([]*recipe.Recipe, error)
	ListBatch(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error)
	Count(ctx context.Context) (int64, error)
	SaveEmbedding(ctx context.Context, identifier string, vector []float32) error
	Stats(ctx context.Context) (*StoreStats, error)
	HealthCheck(ctx context.Context) error
}

// BulkReport counts the outcome of a bulk index operation.
type BulkReport struct {
	Success int
	Skipped int
	Failed  int
}

// SearchMode selects how the index query is assembled.
type SearchMode string

const (
	SearchModeText     SearchMode = "text"
	SearchModeSemantic SearchMode = "semantic"
	SearchModeHybrid   SearchMode = "hybrid"
)

// SearchQuery is one query against the search index.
type SearchQuery struct {
	Text    string
	Vector  []float32
	Mode    SearchMode
	Filters SearchFilters
	From    int
	Size    int
}

// SearchHit is one document returned by the index.
type SearchHit struct {
	Identifier string
	Title      string
	Score      float64
	Source     map[string]interface{}
}

// SearchIndex is the search engine port. Document IDs are recipe identifiers;
// sync never deletes.
type SearchIndex interface {
	EnsureIndex(ctx context.Context) error
	RecreateIndex(ctx context.Context) error
	BulkUpsert(ctx context.Context, recipes []*recipe.Recipe) (BulkReport, error)
	Query(ctx context.Context, q SearchQuery) ([]SearchHit, error)
	HealthCheck(ctx context.Context) error
}

// Embedder produces fixed-dimension sentence vectors. Best effort: callers
// treat a failure as "no embedding", never as a fatal error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	HealthCheck(ctx context.Context) error
}

// ModelClient is the smallest surface the model-assisted parser needs from a
// language-model provider.
type ModelClient interface {
	Complete(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

// StagingStore is the durable JSON handoff between parse and load.
// Files are named <identifier>.json and treated as immutable once written.
type StagingStore interface {
	Write(ctx context.Context, r *recipe.Recipe) (path string, created bool, err error)
	Read(ctx context.Context, path string) (*recipe.Recipe, error)
	Exists(identifier string) bool
	List(ctx context.Context) ([]string, error)
}

// FeedEvent is one recipe-bearing item pulled from a feed source.
// Field names match the CSV audit format shared with batch inputs.
type FeedEvent struct {
	Date        string `json:"date"`
	NumComments int    `json:"num_comments"`
	Title       string `json:"title"`
	Author      string `json:"user"`
	Text        string `json:"comment"`
	CharCount   int    `json:"n_char"`
	PostID      string `json:"post_id,omitempty"`
	URL         string `json:"url,omitempty"`
}

// FeedSource pulls recent recipe-bearing items from an external feed.
type FeedSource interface {
	FetchRecent(ctx context.Context, sourceID string, limit int) ([]FeedEvent, error)
}

// BusProducer publishes feed events, keyed by author, at-least-once.
type BusProducer interface {
	Publish(ctx context.Context, events ...FeedEvent) error
	Close() error
}

// SeenSet remembers which feed items were already published so the poller
// does not re-emit them. Membership is advisory; the store remains the
// authority on duplicates.
type SeenSet interface {
	Add(ctx context.Context, member string) (bool, error)
	Contains(ctx context.Context, member string) (bool, error)
}
