package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// document is the index representation of a recipe.
type document struct {
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	Instructions []string             `json:"instructions,omitempty"`
	Ingredients  []documentIngredient `json:"ingredients"`
	PrepMinutes  *int                 `json:"prep_minutes,omitempty"`
	CookMinutes  *int                 `json:"cook_minutes,omitempty"`
	TotalMinutes *int                 `json:"total_minutes,omitempty"`
	Servings     *float64             `json:"servings,omitempty"`
	Difficulty   string               `json:"difficulty,omitempty"`
	CuisineType  string               `json:"cuisine_type,omitempty"`
	MealType     string               `json:"meal_type,omitempty"`
	DietaryTags  []string             `json:"dietary_tags,omitempty"`
	SourceURL    string               `json:"source_url,omitempty"`
	SourcePostID string               `json:"source_post_id,omitempty"`
	SourceAuthor string               `json:"source_author,omitempty"`
	SourceScore  *int                 `json:"source_score,omitempty"`
	Embedding    []float32            `json:"embedding,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

type documentIngredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func toDocument(r *recipe.Recipe) document {
	doc := document{
		Title:        r.Title,
		Description:  r.Description,
		Instructions: r.Instructions,
		PrepMinutes:  r.PrepMinutes,
		CookMinutes:  r.CookMinutes,
		TotalMinutes: r.TotalMinutes,
		Servings:     r.Servings,
		Difficulty:   r.Difficulty,
		CuisineType:  r.CuisineType,
		MealType:     r.MealType,
		DietaryTags:  r.DietaryTags,
		SourceURL:    r.SourceURL,
		SourcePostID: r.SourcePostID,
		SourceAuthor: r.SourceAuthor,
		SourceScore:  r.SourceScore,
		CreatedAt:    time.Now().UTC(),
	}
	if len(r.Embedding) == recipe.EmbeddingDim {
		doc.Embedding = r.Embedding
	}
	for _, ing := range r.Ingredients {
		// Placeholder rows keep unparseable records loadable; they carry no
		// searchable content.
		if ing.IsPlaceholder() {
			continue
		}
		doc.Ingredients = append(doc.Ingredients, documentIngredient{
			Name:   ing.Item,
			Amount: ing.Amount,
			Unit:   ing.Unit,
			Notes:  ing.Notes,
		})
	}
	return doc
}

// isMalformed screens out documents that would pollute search results:
// placeholder-only ingredient lists, a single run-on "ingredient", or no
// ingredients at all.
func isMalformed(r *recipe.Recipe) bool {
	valid := r.ValidIngredients()
	if len(valid) == 0 {
		return true
	}
	if len(valid) == 1 && len(valid[0].Item) > 100 {
		return true
	}
	return false
}

// BulkUpsert indexes a batch of recipes. Malformed records are counted as
// skipped, per-document failures as failed; neither aborts the batch.
func (i *Index) BulkUpsert(ctx context.Context, recipes []*recipe.Recipe) (outbound.BulkReport, error) {
	report := outbound.BulkReport{}
	var buf bytes.Buffer
	ids := make([]string, 0, len(recipes))

	for _, r := range recipes {
		if r.Identifier == "" || isMalformed(r) {
			report.Skipped++
			continue
		}
		meta := map[string]map[string]string{"index": {"_index": i.name, "_id": r.Identifier}}
		metaLine, err := json.Marshal(meta)
		if err != nil {
			report.Failed++
			continue
		}
		docLine, err := json.Marshal(toDocument(r))
		if err != nil {
			report.Failed++
			continue
		}
		buf.Write(metaLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
		ids = append(ids, r.Identifier)
	}

	if buf.Len() == 0 {
		return report, nil
	}

	res, err := i.es.Bulk(
		bytes.NewReader(buf.Bytes()),
		i.es.Bulk.WithContext(ctx),
		i.es.Bulk.WithIndex(i.name),
	)
	if err != nil {
		report.Failed += len(ids)
		return report, fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		report.Failed += len(ids)
		return report, fmt.Errorf("bulk request returned %s", res.Status())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return report, fmt.Errorf("failed to decode bulk response: %w", err)
	}

	for idx, item := range bulkResp.Items {
		for _, result := range item {
			if result.Status >= 200 && result.Status < 300 {
				report.Success++
			} else {
				report.Failed++
				if result.Error != nil && idx < len(ids) {
					i.logger.Warn("document indexing failed",
						zap.String("identifier", ids[idx]),
						zap.String("reason", result.Error.Reason))
				}
			}
		}
	}

	return report, nil
}
