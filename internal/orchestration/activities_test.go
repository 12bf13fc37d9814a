package orchestration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/alchemorsel/pipeline/internal/application/ingest"
	"github.com/alchemorsel/pipeline/internal/application/loader"
	feedinfra "github.com/alchemorsel/pipeline/internal/infrastructure/feed"
	"github.com/alchemorsel/pipeline/internal/infrastructure/monitoring"
	gormstore "github.com/alchemorsel/pipeline/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pipeline/internal/infrastructure/staging"
	"github.com/alchemorsel/pipeline/internal/parser"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	pipelinetest "github.com/alchemorsel/pipeline/internal/testutil"
)

const curryText = `Ingredients:
- 2 cups chickpeas
- 1 can coconut milk
- 2 tbsp curry powder

Instructions:
1. Heat oil in a large pan.
2. Simmer everything until thick.
`

func newActivities(t *testing.T) *Activities {
	t.Helper()
	db, err := pipelinetest.OpenTestDB()
	require.NoError(t, err)
	store := gormstore.NewRecipeStore(db, zap.NewNop())

	staged, err := staging.New(filepath.Join(t.TempDir(), "staged"), zap.NewNop())
	require.NoError(t, err)

	return &Activities{
		Ingest:  ingest.NewService(parser.NewLocal(zap.NewNop()), nil, staged, zap.NewNop()),
		Loader:  loader.NewService(store, staged, zap.NewNop()),
		Metrics: monitoring.New(),
		Logger:  zap.NewNop(),
	}
}

func writeBatchCSV(t *testing.T, titles ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.csv")
	var events []outbound.FeedEvent
	for _, title := range titles {
		events = append(events, outbound.FeedEvent{
			Date:      "2026-08-25 12:00:00",
			Title:     title,
			Author:    "cook_a",
			Text:      curryText,
			CharCount: len(curryText),
		})
	}
	require.NoError(t, feedinfra.AppendCSV(path, events))
	return path
}

func TestExtractOneReadsItsRow(t *testing.T) {
	a := newActivities(t)
	path := writeBatchCSV(t, "Miso Soup", "Chickpea Curry")

	result, err := a.ExtractOne(context.Background(), ExtractInput{Source: path, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "Chickpea Curry", result.Title)
	assert.True(t, result.Created)
}

func TestExtractOneOutOfRangeIsPermanent(t *testing.T) {
	a := newActivities(t)
	path := writeBatchCSV(t, "Miso Soup")

	_, err := a.ExtractOne(context.Background(), ExtractInput{Source: path, Index: 5})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ValidationFailedType, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestLoadOneMovesOutcomeCounter(t *testing.T) {
	a := newActivities(t)
	ctx := context.Background()
	path := writeBatchCSV(t, "Chickpea Curry")

	extracted, err := a.ExtractOne(ctx, ExtractInput{Source: path, Index: 0})
	require.NoError(t, err)

	inserted := a.Metrics.Outcomes.WithLabelValues(string(loader.OutcomeInserted))
	before := testutil.ToFloat64(inserted)

	loaded, err := a.LoadOne(ctx, extracted.Path)
	require.NoError(t, err)
	assert.Equal(t, loader.OutcomeInserted, loaded.Outcome)
	assert.Equal(t, before+1, testutil.ToFloat64(inserted))

	// A replay of the same file counts under already_existed.
	again, err := a.LoadOne(ctx, extracted.Path)
	require.NoError(t, err)
	assert.Equal(t, loader.OutcomeAlreadyExisted, again.Outcome)
	assert.Equal(t, float64(1),
		testutil.ToFloat64(a.Metrics.Outcomes.WithLabelValues(string(loader.OutcomeAlreadyExisted))))

	// Latency histogram saw the activity calls.
	assert.Greater(t, testutil.CollectAndCount(a.Metrics.ActivityLatency), 0)
}
