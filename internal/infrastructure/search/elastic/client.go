// Package elastic implements the search index port on Elasticsearch.
// One index holds every recipe; document IDs are recipe identifiers and
// sync never deletes.
package elastic

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// Index implements outbound.SearchIndex.
type Index struct {
	es     *elasticsearch.Client
	name   string
	logger *zap.Logger
}

// New creates the search index adapter.
func New(cfg *config.Config, logger *zap.Logger) (outbound.SearchIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Search.Addresses,
		Username:  cfg.Search.Username,
		Password:  cfg.Search.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}
	return &Index{
		es:     es,
		name:   cfg.Search.Index,
		logger: logger.Named("search-index"),
	}, nil
}

// HealthCheck pings the cluster.
func (i *Index) HealthCheck(ctx context.Context) error {
	res, err := i.es.Ping(i.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search ping returned %s", res.Status())
	}
	return nil
}
