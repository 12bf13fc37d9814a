package orchestration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/alchemorsel/pipeline/internal/application/feed"
	"github.com/alchemorsel/pipeline/internal/application/ingest"
	"github.com/alchemorsel/pipeline/internal/application/loader"
	"github.com/alchemorsel/pipeline/internal/infrastructure/messaging/kafka"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
)

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	return suite.NewTestWorkflowEnvironment()
}

func validationError(msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, ValidationFailedType, nil)
}

func TestProcessBatchSequentialIsolatesFailures(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	env.OnActivity(a.ExtractOne, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input ExtractInput) (ingest.ExtractResult, error) {
			assert.Equal(t, "/data/batch.csv", input.Source)
			if input.Index == 1 {
				return ingest.ExtractResult{}, validationError("no ingredients")
			}
			return ingest.ExtractResult{
				Identifier: fmt.Sprintf("id-%d", input.Index),
				Path:       fmt.Sprintf("/staged/%d.json", input.Index),
				Created:    true,
			}, nil
		})
	env.OnActivity(a.LoadOne, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, path string) (loader.LoadResult, error) {
			return loader.LoadResult{Outcome: loader.OutcomeInserted}, nil
		})

	env.ExecuteWorkflow(ProcessBatchSequential, BatchInput{Source: "/data/batch.csv", Start: 0, End: 3})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var summary loader.Summary
	require.NoError(t, env.GetWorkflowResult(&summary))
	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Failed)
}

func TestProcessBatchSequentialCountsLoadFailures(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	env.OnActivity(a.ExtractOne, mock.Anything, mock.Anything).Return(
		ingest.ExtractResult{Identifier: "id1", Path: "/staged/id1.json"}, nil)
	env.OnActivity(a.LoadOne, mock.Anything, mock.Anything).Return(
		loader.LoadResult{}, validationError("store rejected"))

	env.ExecuteWorkflow(ProcessBatchSequential, BatchInput{Source: "/data/batch.csv", Start: 0, End: 1})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var summary loader.Summary
	require.NoError(t, env.GetWorkflowResult(&summary))
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Failed)
}

func TestProcessBatchParallelCoversWholeRange(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	var mu sync.Mutex
	seen := map[int]bool{}
	env.OnActivity(a.ExtractOne, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input ExtractInput) (ingest.ExtractResult, error) {
			mu.Lock()
			seen[input.Index] = true
			mu.Unlock()
			return ingest.ExtractResult{
				Identifier: fmt.Sprintf("id-%d", input.Index),
				Path:       fmt.Sprintf("/staged/%d.json", input.Index),
			}, nil
		})
	env.OnActivity(a.LoadOne, mock.Anything, mock.Anything).Return(
		loader.LoadResult{Outcome: loader.OutcomeInserted}, nil)

	env.ExecuteWorkflow(ProcessBatchParallel, BatchInput{Source: "/data/batch.csv", Start: 0, End: 7, Fanout: 3})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var summary loader.Summary
	require.NoError(t, env.GetWorkflowResult(&summary))
	assert.Equal(t, 7, summary.Attempted)
	assert.Equal(t, 7, summary.Inserted)
	// Every row in the range ran exactly once across the chunks.
	assert.Len(t, seen, 7)
	for i := 0; i < 7; i++ {
		assert.True(t, seen[i], "row %d not processed", i)
	}
}

func TestProcessBatchParallelEmptyRange(t *testing.T) {
	env := newEnv(t)

	env.ExecuteWorkflow(ProcessBatchParallel, BatchInput{Source: "/data/batch.csv", Start: 3, End: 3})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var summary loader.Summary
	require.NoError(t, env.GetWorkflowResult(&summary))
	assert.Zero(t, summary.Attempted)
}

func TestLoadFolderWorkflow(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	env.OnActivity(a.ListStaged, mock.Anything).Return(
		[]string{"/staged/one.json", "/staged/two.json"}, nil)
	env.OnActivity(a.LoadOne, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, path string) (loader.LoadResult, error) {
			if path == "/staged/two.json" {
				return loader.LoadResult{Outcome: loader.OutcomeAlreadyExisted}, nil
			}
			return loader.LoadResult{Outcome: loader.OutcomeInserted}, nil
		})

	env.ExecuteWorkflow(LoadFolder)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var summary loader.Summary
	require.NoError(t, env.GetWorkflowResult(&summary))
	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.AlreadyExisted)
}

func TestSyncSearchPaginatesUntilShortPage(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	env.OnActivity(a.PrepareIndex, mock.Anything, true).Return(nil).Once()
	env.OnActivity(a.SyncBatch, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, input SyncBatchInput) (SyncBatchResult, error) {
			if input.Offset == 0 {
				return SyncBatchResult{Report: outbound.BulkReport{Success: 2}, Fetched: 2}, nil
			}
			return SyncBatchResult{Report: outbound.BulkReport{Success: 1, Skipped: 1}, Fetched: 1}, nil
		})

	env.ExecuteWorkflow(SyncSearch, SyncInput{Recreate: true, BatchSize: 2})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report outbound.BulkReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.Equal(t, 3, report.Success)
	assert.Equal(t, 1, report.Skipped)
	env.AssertExpectations(t)
}

func TestSyncSearchStopsOnPrepareFailure(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	env.OnActivity(a.PrepareIndex, mock.Anything, mock.Anything).Return(
		validationError("index mapping rejected"))

	env.ExecuteWorkflow(SyncSearch, SyncInput{})
	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestScrapeFeedDrainsPublishedCount(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	env.OnActivity(a.ScrapeFeedOnce, mock.Anything).Return(
		feed.ScrapeReport{Fetched: 5, Seen: 2, Published: 3}, nil)
	env.OnActivity(a.ConsumeBusBatch, mock.Anything, 3).Return(
		kafka.ConsumeStats{Processed: 3}, nil).Once()

	env.ExecuteWorkflow(ScrapeFeed)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ScrapeResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 3, result.Scrape.Published)
	assert.Equal(t, 3, result.Consume.Processed)
	env.AssertExpectations(t)
}

func TestScrapeFeedDefaultsDrainWhenNothingPublished(t *testing.T) {
	env := newEnv(t)
	a := &Activities{}

	env.OnActivity(a.ScrapeFeedOnce, mock.Anything).Return(feed.ScrapeReport{}, nil)
	env.OnActivity(a.ConsumeBusBatch, mock.Anything, defaultConsumeMax).Return(
		kafka.ConsumeStats{}, nil).Once()

	env.ExecuteWorkflow(ScrapeFeed)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}
