package elastic

import (
	"context"
	"fmt"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"go.uber.org/zap"
)

// indexSettings is the full index definition: one shard, the snowball
// analyzer for recipe prose, nested ingredients, keyword facets, and the
// 384-dimension embedding field.
var indexSettings = fmt.Sprintf(`{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "recipe_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "stop", "snowball"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "title": {
        "type": "text",
        "analyzer": "recipe_analyzer",
        "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}
      },
      "description": {"type": "text", "analyzer": "recipe_analyzer"},
      "instructions": {"type": "text", "analyzer": "recipe_analyzer"},
      "ingredients": {
        "type": "nested",
        "properties": {
          "name": {
            "type": "text",
            "analyzer": "recipe_analyzer",
            "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}
          },
          "amount": {"type": "keyword"},
          "unit": {"type": "keyword"},
          "notes": {"type": "text"}
        }
      },
      "prep_minutes": {"type": "integer"},
      "cook_minutes": {"type": "integer"},
      "total_minutes": {"type": "integer"},
      "servings": {"type": "float"},
      "difficulty": {"type": "keyword"},
      "cuisine_type": {"type": "keyword"},
      "meal_type": {"type": "keyword"},
      "dietary_tags": {"type": "keyword"},
      "source_url": {"type": "keyword"},
      "source_post_id": {"type": "keyword"},
      "source_author": {"type": "keyword"},
      "source_score": {"type": "integer"},
      "embedding": {
        "type": "dense_vector",
        "dims": %d,
        "index": true,
        "similarity": "cosine"
      },
      "created_at": {"type": "date"}
    }
  }
}`, recipe.EmbeddingDim)

// EnsureIndex creates the index if it is absent. It never mutates an
// existing mapping; destructive refresh goes through RecreateIndex.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.name}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	create, err := i.es.Indices.Create(
		i.name,
		i.es.Indices.Create.WithContext(ctx),
		i.es.Indices.Create.WithBody(strings.NewReader(indexSettings)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer create.Body.Close()
	if create.IsError() {
		return fmt.Errorf("index creation returned %s", create.Status())
	}

	i.logger.Info("Search index created", zap.String("index", i.name))
	return nil
}

// RecreateIndex drops and recreates the index. Explicitly destructive.
func (i *Index) RecreateIndex(ctx context.Context) error {
	res, err := i.es.Indices.Delete(
		[]string{i.name},
		i.es.Indices.Delete.WithContext(ctx),
		i.es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	res.Body.Close()

	i.logger.Warn("Search index dropped for recreation", zap.String("index", i.name))
	return i.EnsureIndex(ctx)
}
