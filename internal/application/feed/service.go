// Package feed runs the poll-and-publish phase: fetch recent feed items,
// drop ones already seen, append the CSV audit row, publish to the bus.
package feed

import (
	"context"
	"fmt"

	feedinfra "github.com/alchemorsel/pipeline/internal/infrastructure/feed"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// ScrapeReport counts one poll cycle.
type ScrapeReport struct {
	Fetched   int `json:"fetched"`
	Seen      int `json:"seen"`
	Published int `json:"published"`
}

// Service implements the feed poller.
type Service struct {
	source      outbound.FeedSource
	seen        outbound.SeenSet
	producer    outbound.BusProducer
	sourceID    string
	limit       int
	csvSinkPath string
	logger      *zap.Logger
}

// NewService creates the feed service. producer may be nil for dry runs;
// events are then recorded in the CSV sink only.
func NewService(source outbound.FeedSource, seen outbound.SeenSet, producer outbound.BusProducer, sourceID string, limit int, csvSinkPath string, logger *zap.Logger) *Service {
	return &Service{
		source:      source,
		seen:        seen,
		producer:    producer,
		sourceID:    sourceID,
		limit:       limit,
		csvSinkPath: csvSinkPath,
		logger:      logger.Named("feed"),
	}
}

// seenKey identifies a feed item in the seen set. Post IDs are stable;
// title plus author covers sources that lack them.
func seenKey(event outbound.FeedEvent) string {
	if event.PostID != "" {
		return event.PostID
	}
	return fmt.Sprintf("%s_%s", event.Title, event.Author)
}

// ScrapeOnce runs one poll cycle. The seen set keeps re-polls cheap; the
// store's identifier dedup remains the real duplicate barrier downstream.
func (s *Service) ScrapeOnce(ctx context.Context) (ScrapeReport, error) {
	report := ScrapeReport{}

	events, err := s.source.FetchRecent(ctx, s.sourceID, s.limit)
	if err != nil {
		return report, err
	}
	report.Fetched = len(events)

	var fresh []outbound.FeedEvent
	for _, event := range events {
		isNew, err := s.seen.Add(ctx, seenKey(event))
		if err != nil {
			return report, err
		}
		if !isNew {
			report.Seen++
			continue
		}
		fresh = append(fresh, event)
	}
	if len(fresh) == 0 {
		return report, nil
	}

	if err := feedinfra.AppendCSV(s.csvSinkPath, fresh); err != nil {
		s.logger.Warn("CSV sink write failed", zap.Error(err))
	}

	if s.producer != nil {
		if err := s.producer.Publish(ctx, fresh...); err != nil {
			return report, err
		}
	}
	report.Published = len(fresh)

	s.logger.Info("Feed cycle finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("seen", report.Seen),
		zap.Int("published", report.Published))
	return report, nil
}
