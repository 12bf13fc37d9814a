package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
)

const minNumCandidates = 100

// buildQuery assembles the request body for one of the three search modes.
// Text mode runs a fuzzy multi_match; semantic mode is pure kNN over the
// embedding field; hybrid combines both with the kNN leg down-weighted.
func buildQuery(q outbound.SearchQuery) (map[string]any, error) {
	size := q.Size
	if size <= 0 {
		size = 10
	}
	body := map[string]any{
		"from": q.From,
		"size": size,
		"_source": map[string]any{
			"excludes": []string{"embedding"},
		},
	}

	filters := filterClauses(q.Filters)

	textQuery := map[string]any{
		"multi_match": map[string]any{
			"query":     q.Text,
			"fields":    []string{"title^3", "description^2", "ingredients.name^2", "instructions"},
			"fuzziness": "AUTO",
		},
	}

	numCandidates := size * 10
	if numCandidates < minNumCandidates {
		numCandidates = minNumCandidates
	}
	knn := map[string]any{
		"field":          "embedding",
		"query_vector":   q.Vector,
		"k":              size,
		"num_candidates": numCandidates,
	}
	if len(filters) > 0 {
		knn["filter"] = filters
	}

	switch q.Mode {
	case outbound.SearchModeText, "":
		boolQuery := map[string]any{"must": []any{textQuery}}
		if len(filters) > 0 {
			boolQuery["filter"] = filters
		}
		body["query"] = map[string]any{"bool": boolQuery}

	case outbound.SearchModeSemantic:
		if len(q.Vector) != recipe.EmbeddingDim {
			return nil, fmt.Errorf("semantic search requires a %d-dimension vector", recipe.EmbeddingDim)
		}
		body["knn"] = knn

	case outbound.SearchModeHybrid:
		if len(q.Vector) != recipe.EmbeddingDim {
			return nil, fmt.Errorf("hybrid search requires a %d-dimension vector", recipe.EmbeddingDim)
		}
		boolQuery := map[string]any{"should": []any{textQuery}}
		if len(filters) > 0 {
			boolQuery["filter"] = filters
		}
		body["query"] = map[string]any{"bool": boolQuery}
		knn["boost"] = 0.5
		body["knn"] = knn

	default:
		return nil, fmt.Errorf("unknown search mode %q", q.Mode)
	}

	return body, nil
}

func filterClauses(f outbound.SearchFilters) []any {
	var clauses []any
	if f.Difficulty != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"difficulty": f.Difficulty}})
	}
	if f.CuisineType != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"cuisine_type": f.CuisineType}})
	}
	if f.MealType != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"meal_type": f.MealType}})
	}
	for _, tag := range f.DietaryTags {
		clauses = append(clauses, map[string]any{"term": map[string]any{"dietary_tags": tag}})
	}
	if f.MaxMinutes > 0 {
		clauses = append(clauses, map[string]any{"range": map[string]any{"total_minutes": map[string]any{"lte": f.MaxMinutes}}})
	}
	return clauses
}

// Query runs a search and returns scored hits.
func (i *Index) Query(ctx context.Context, q outbound.SearchQuery) ([]outbound.SearchHit, error) {
	body, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.name),
		i.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search returned %s", res.Status())
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]outbound.SearchHit, 0, len(searchResp.Hits.Hits))
	for _, h := range searchResp.Hits.Hits {
		var src map[string]interface{}
		if err := json.Unmarshal(h.Source, &src); err != nil {
			continue
		}
		title, _ := src["title"].(string)
		hits = append(hits, outbound.SearchHit{
			Identifier: h.ID,
			Title:      title,
			Score:      h.Score,
			Source:     src,
		})
	}
	return hits, nil
}
