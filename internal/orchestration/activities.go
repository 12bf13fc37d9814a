// Package orchestration holds the durable workflows and their activities.
// Workflows carry only decisions and pacing; every side effect lives in an
// activity so Temporal can retry it independently.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/alchemorsel/pipeline/internal/application/feed"
	"github.com/alchemorsel/pipeline/internal/application/ingest"
	"github.com/alchemorsel/pipeline/internal/application/loader"
	"github.com/alchemorsel/pipeline/internal/application/search"
	feedinfra "github.com/alchemorsel/pipeline/internal/infrastructure/feed"
	"github.com/alchemorsel/pipeline/internal/infrastructure/messaging/kafka"
	"github.com/alchemorsel/pipeline/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
)

// ValidationFailedType marks activity errors the retry policy must not retry.
const ValidationFailedType = "ValidationFailed"

// Activities bundles every activity implementation for worker registration.
type Activities struct {
	Ingest   *ingest.Service
	Loader   *loader.Service
	Search   *search.Service
	Feed     *feed.Service
	Consumer *kafka.Consumer
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
}

// ExtractInput names one row of a batch source. The activity reads the row
// itself so workflow history carries only the path and the index.
type ExtractInput struct {
	Source   string `json:"source"`
	Index    int    `json:"index"`
	UseModel bool   `json:"use_model"`
}

// SyncBatchInput names the arguments of SyncBatch.
type SyncBatchInput struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SyncBatchResult carries one page's report plus the fetch count the
// workflow needs to decide whether to continue paginating.
type SyncBatchResult struct {
	Report  outbound.BulkReport `json:"report"`
	Fetched int                 `json:"fetched"`
}

// asActivityError converts application errors so that permanent rejections
// stop the retry loop instead of burning attempts.
func asActivityError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && !appErr.Retryable() {
		return temporal.NewNonRetryableApplicationError(appErr.Message, ValidationFailedType, err)
	}
	return err
}

// observe records one activity duration. Metrics may be nil in tests.
func (a *Activities) observe(name string, start time.Time) {
	if a.Metrics != nil {
		a.Metrics.ObserveActivity(name, time.Since(start))
	}
}

// ExtractOne reads one row from the batch source, parses it, and stages the
// result. A row index outside the file is permanent, never retried.
func (a *Activities) ExtractOne(ctx context.Context, input ExtractInput) (ingest.ExtractResult, error) {
	defer a.observe("extract_one", time.Now())

	events, err := feedinfra.ReadCSV(input.Source)
	if err != nil {
		return ingest.ExtractResult{}, err
	}
	if input.Index < 0 || input.Index >= len(events) {
		return ingest.ExtractResult{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("row %d out of bounds for %d rows", input.Index, len(events)),
			ValidationFailedType, nil)
	}

	result, err := a.Ingest.ExtractOne(ctx, events[input.Index], input.UseModel)
	return result, asActivityError(err)
}

// LoadOne loads one staged file into the store.
func (a *Activities) LoadOne(ctx context.Context, path string) (loader.LoadResult, error) {
	defer a.observe("load_one", time.Now())

	result, err := a.Loader.LoadOne(ctx, path)
	if a.Metrics != nil && result.Outcome != "" {
		a.Metrics.ObserveOutcome(string(result.Outcome))
	}
	return result, asActivityError(err)
}

// ListStaged returns every staged file path in stable order.
func (a *Activities) ListStaged(ctx context.Context) ([]string, error) {
	return a.Loader.ListStaged(ctx)
}

// PrepareIndex creates or recreates the search index.
func (a *Activities) PrepareIndex(ctx context.Context, recreate bool) error {
	defer a.observe("prepare_index", time.Now())
	return a.Search.PrepareIndex(ctx, recreate)
}

// SyncBatch embeds and indexes one page of recipes.
func (a *Activities) SyncBatch(ctx context.Context, input SyncBatchInput) (SyncBatchResult, error) {
	defer a.observe("sync_batch", time.Now())
	report, fetched, err := a.Search.SyncBatch(ctx, input.Offset, input.Limit)
	return SyncBatchResult{Report: report, Fetched: fetched}, asActivityError(err)
}

// SyncOne re-indexes a single recipe by identifier.
func (a *Activities) SyncOne(ctx context.Context, identifier string) (outbound.BulkReport, error) {
	report, err := a.Search.SyncOne(ctx, identifier)
	return report, asActivityError(err)
}

// EmbedOne computes and caches the embedding for one recipe.
func (a *Activities) EmbedOne(ctx context.Context, identifier string) error {
	defer a.observe("embed_one", time.Now())
	return asActivityError(a.Search.EmbedOne(ctx, identifier))
}

// ScrapeFeedOnce runs one feed poll cycle.
func (a *Activities) ScrapeFeedOnce(ctx context.Context) (feed.ScrapeReport, error) {
	defer a.observe("scrape_feed", time.Now())
	report, err := a.Feed.ScrapeOnce(ctx)
	if a.Metrics != nil && report.Published > 0 {
		a.Metrics.ObservePublished(report.Published)
	}
	return report, asActivityError(err)
}

// ConsumeBusBatch drains up to maxMessages feed events from the bus, running
// the full extract-and-load path for each. Heartbeats after every message so
// a stuck broker read is detected by the activity timeout, not the whole
// batch duration.
func (a *Activities) ConsumeBusBatch(ctx context.Context, maxMessages int) (kafka.ConsumeStats, error) {
	defer a.observe("consume_bus", time.Now())

	if a.Consumer == nil {
		return kafka.ConsumeStats{}, temporal.NewNonRetryableApplicationError(
			"no bus consumer configured", ValidationFailedType, nil)
	}
	handler := func(ctx context.Context, event outbound.FeedEvent) error {
		activity.RecordHeartbeat(ctx, event.Title)

		result, err := a.Ingest.ExtractOne(ctx, event, false)
		if err != nil {
			return err
		}
		load, err := a.Loader.LoadOne(ctx, result.Path)
		if err != nil {
			return err
		}
		if a.Metrics != nil && load.Outcome != "" {
			a.Metrics.ObserveOutcome(string(load.Outcome))
		}
		if load.Outcome == loader.OutcomeAlreadyExisted {
			return kafka.ErrDuplicate
		}
		return nil
	}
	stats, err := a.Consumer.ConsumeBatch(ctx, maxMessages, handler)
	return stats, asActivityError(err)
}
