package orchestration

import (
	"context"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
)

// FeedScheduleID names the recurring feed poll schedule.
const FeedScheduleID = "scrape-feed-every-interval"

// maxBackfillWindow bounds how far back a resumed schedule replays.
// Feed listings only go so deep; older cycles would fetch nothing.
const maxBackfillWindow = time.Hour

// Scheduler manages the recurring feed workflow.
type Scheduler struct {
	client    client.Client
	taskQueue string
	interval  time.Duration
}

// NewScheduler creates the schedule manager.
func NewScheduler(c client.Client, cfg *config.Config) *Scheduler {
	interval := cfg.Feed.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		client:    c,
		taskQueue: cfg.Temporal.TaskQueue,
		interval:  interval,
	}
}

// Create registers the feed schedule. Overlapping runs are skipped rather
// than queued: a slow cycle must not pile up behind itself.
func (s *Scheduler) Create(ctx context.Context) error {
	_, err := s.client.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: FeedScheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{
				{Every: s.interval},
			},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        "scrape-feed",
			Workflow:  ScrapeFeed,
			TaskQueue: s.taskQueue,
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// Pause stops future runs without deleting the schedule.
func (s *Scheduler) Pause(ctx context.Context) error {
	handle := s.client.ScheduleClient().GetHandle(ctx, FeedScheduleID)
	return handle.Pause(ctx, client.SchedulePauseOptions{Note: "paused by operator"})
}

// Unpause resumes runs and backfills the bounded window missed while paused.
func (s *Scheduler) Unpause(ctx context.Context) error {
	handle := s.client.ScheduleClient().GetHandle(ctx, FeedScheduleID)
	if err := handle.Unpause(ctx, client.ScheduleUnpauseOptions{Note: "resumed by operator"}); err != nil {
		return err
	}
	now := time.Now()
	return handle.Backfill(ctx, client.ScheduleBackfillOptions{
		Backfill: []client.ScheduleBackfill{
			{
				Start:   now.Add(-maxBackfillWindow),
				End:     now,
				Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
			},
		},
	})
}

// Trigger starts one run immediately.
func (s *Scheduler) Trigger(ctx context.Context) error {
	handle := s.client.ScheduleClient().GetHandle(ctx, FeedScheduleID)
	return handle.Trigger(ctx, client.ScheduleTriggerOptions{
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
}

// Describe returns the schedule's current state.
func (s *Scheduler) Describe(ctx context.Context) (*client.ScheduleDescription, error) {
	handle := s.client.ScheduleClient().GetHandle(ctx, FeedScheduleID)
	return handle.Describe(ctx)
}

// Delete removes the schedule.
func (s *Scheduler) Delete(ctx context.Context) error {
	handle := s.client.ScheduleClient().GetHandle(ctx, FeedScheduleID)
	return handle.Delete(ctx)
}
