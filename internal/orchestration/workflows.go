package orchestration

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/alchemorsel/pipeline/internal/application/feed"
	"github.com/alchemorsel/pipeline/internal/application/ingest"
	"github.com/alchemorsel/pipeline/internal/application/loader"
	"github.com/alchemorsel/pipeline/internal/infrastructure/messaging/kafka"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
)

const (
	// Pacing between extracts. Model-assisted parsing is paced to stay
	// under provider rate limits; local parsing only needs to avoid
	// hammering the staging disk.
	defaultModelPace = 1200 * time.Millisecond
	defaultLocalPace = 50 * time.Millisecond

	defaultFanout     = 5
	defaultConsumeMax = 100
)

// activityOptions is the shared policy: generous single-attempt timeout,
// three attempts with steep backoff, validation rejections never retried.
func activityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     4.0,
			MaximumInterval:        20 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ValidationFailedType},
		},
	}
}

// BatchInput drives the batch processing workflows. The workflow carries
// only the source path and the row range; each extract activity reads its
// own row, so post bodies never enter workflow history.
type BatchInput struct {
	Source    string `json:"source"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	UseModel  bool   `json:"use_model"`
	PaceMilli int    `json:"pace_milli"`
	Fanout    int    `json:"fanout"`
}

func (in BatchInput) pace() time.Duration {
	if in.PaceMilli > 0 {
		return time.Duration(in.PaceMilli) * time.Millisecond
	}
	if in.UseModel {
		return defaultModelPace
	}
	return defaultLocalPace
}

// processRange extracts and loads rows [lo, hi) one at a time with pacing
// between extracts. Per-row failures are counted, never fatal.
func processRange(ctx workflow.Context, input BatchInput, lo, hi int, summary *loader.Summary) error {
	logger := workflow.GetLogger(ctx)
	var a *Activities
	for i := lo; i < hi; i++ {
		if i > lo {
			if err := workflow.Sleep(ctx, input.pace()); err != nil {
				return err
			}
		}

		var extracted ingest.ExtractResult
		err := workflow.ExecuteActivity(ctx, a.ExtractOne, ExtractInput{
			Source:   input.Source,
			Index:    i,
			UseModel: input.UseModel,
		}).Get(ctx, &extracted)
		if err != nil {
			logger.Warn("Extract failed", "source", input.Source, "index", i, "error", err)
			summary.Add(loader.LoadResult{Outcome: loader.OutcomeSkipped, Reason: err.Error()})
			continue
		}

		var loaded loader.LoadResult
		err = workflow.ExecuteActivity(ctx, a.LoadOne, extracted.Path).Get(ctx, &loaded)
		if err != nil {
			logger.Warn("Load failed", "identifier", extracted.Identifier, "error", err)
			summary.Add(loader.LoadResult{Identifier: extracted.Identifier, Outcome: loader.OutcomeFailed, Reason: err.Error()})
			continue
		}
		summary.Add(loaded)
	}
	return nil
}

// ProcessBatchSequential walks the row range in order, one extract-and-load
// at a time. The batch always runs to the end.
func ProcessBatchSequential(ctx workflow.Context, input BatchInput) (loader.Summary, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	summary := loader.Summary{}
	start := workflow.Now(ctx)

	if err := processRange(ctx, input, input.Start, input.End, &summary); err != nil {
		return summary, err
	}

	summary.Elapsed = workflow.Now(ctx).Sub(start)
	return summary, nil
}

// ProcessBatchParallel partitions the row range into fanout contiguous
// chunks and runs every chunk concurrently. Inside a chunk rows are
// sequential and paced, so the model provider sees at most fanout requests
// in flight.
func ProcessBatchParallel(ctx workflow.Context, input BatchInput) (loader.Summary, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	summary := loader.Summary{}
	start := workflow.Now(ctx)

	total := input.End - input.Start
	if total <= 0 {
		return summary, nil
	}
	fanout := input.Fanout
	if fanout <= 0 {
		fanout = defaultFanout
	}
	if fanout > total {
		fanout = total
	}
	perChunk := (total + fanout - 1) / fanout

	// Workflow goroutines are cooperatively scheduled, so the chunks can
	// share the summary without synchronization.
	wg := workflow.NewWaitGroup(ctx)
	for c := 0; c < fanout; c++ {
		lo := input.Start + c*perChunk
		hi := lo + perChunk
		if hi > input.End {
			hi = input.End
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		workflow.Go(ctx, func(gctx workflow.Context) {
			defer wg.Done()
			_ = processRange(gctx, input, lo, hi, &summary)
		})
	}
	wg.Wait(ctx)

	summary.Elapsed = workflow.Now(ctx).Sub(start)
	return summary, nil
}

// LoadFolder replays every staged file into the store.
func LoadFolder(ctx workflow.Context) (loader.Summary, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	logger := workflow.GetLogger(ctx)
	summary := loader.Summary{}
	start := workflow.Now(ctx)

	var a *Activities
	var paths []string
	if err := workflow.ExecuteActivity(ctx, a.ListStaged).Get(ctx, &paths); err != nil {
		return summary, err
	}

	for _, path := range paths {
		var loaded loader.LoadResult
		if err := workflow.ExecuteActivity(ctx, a.LoadOne, path).Get(ctx, &loaded); err != nil {
			logger.Warn("Load failed", "path", path, "error", err)
			summary.Add(loader.LoadResult{Outcome: loader.OutcomeFailed, Reason: err.Error()})
			continue
		}
		summary.Add(loaded)
	}

	summary.Elapsed = workflow.Now(ctx).Sub(start)
	return summary, nil
}

// SyncInput drives the index sync workflow.
type SyncInput struct {
	Recreate  bool `json:"recreate"`
	BatchSize int  `json:"batch_size"`
}

// SyncSearch pages through the store and indexes every recipe. The page
// size bounds each activity so one huge store cannot blow the activity
// timeout.
func SyncSearch(ctx workflow.Context, input SyncInput) (outbound.BulkReport, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	total := outbound.BulkReport{}

	batchSize := input.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	var a *Activities
	if err := workflow.ExecuteActivity(ctx, a.PrepareIndex, input.Recreate).Get(ctx, nil); err != nil {
		return total, err
	}

	for offset := 0; ; offset += batchSize {
		var page SyncBatchResult
		err := workflow.ExecuteActivity(ctx, a.SyncBatch, SyncBatchInput{
			Offset: offset,
			Limit:  batchSize,
		}).Get(ctx, &page)
		if err != nil {
			return total, err
		}
		total.Success += page.Report.Success
		total.Skipped += page.Report.Skipped
		total.Failed += page.Report.Failed
		if page.Fetched < batchSize {
			break
		}
	}
	return total, nil
}

// ScrapeResult reports one feed cycle end to end.
type ScrapeResult struct {
	Scrape  feed.ScrapeReport  `json:"scrape"`
	Consume kafka.ConsumeStats `json:"consume"`
}

// ScrapeFeed polls the feed, publishes fresh items to the bus, then drains
// the bus through the extract-and-load path.
func ScrapeFeed(ctx workflow.Context) (ScrapeResult, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions())
	result := ScrapeResult{}

	var a *Activities
	if err := workflow.ExecuteActivity(ctx, a.ScrapeFeedOnce).Get(ctx, &result.Scrape); err != nil {
		return result, err
	}

	maxMessages := result.Scrape.Published
	if maxMessages <= 0 {
		maxMessages = defaultConsumeMax
	}
	if err := workflow.ExecuteActivity(ctx, a.ConsumeBusBatch, maxMessages).Get(ctx, &result.Consume); err != nil {
		return result, err
	}
	return result, nil
}
