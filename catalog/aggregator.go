// Package catalog merges product search results from every configured
// merchant, with optional best-effort relevance ranking.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	ucp "github.com/Rakinzi/UCP"
)

// SearchClient queries one merchant's catalog. The http package's
// MerchantClient satisfies it.
type SearchClient interface {
	Search(ctx context.Context, store, query string) ([]ucp.Product, error)
}

// Ranker reorders merged results by relevance. Ranking is strictly
// best-effort: any error from a Ranker leaves the original order in place.
type Ranker interface {
	Rank(ctx context.Context, query string, products []ucp.Product) ([]ucp.Product, error)
}

// AggregatorConfig configures the aggregator.
type AggregatorConfig struct {
	// Client performs per-merchant searches. Required.
	Client SearchClient

	// Stores are the merchant base URLs to query.
	Stores []string

	// Ranker reorders merged results (optional).
	Ranker Ranker

	// Logger (optional, defaults to slog.Default).
	Logger *slog.Logger
}

// Aggregator fans a search out across all configured merchants and merges
// whatever comes back. A merchant that faults contributes zero results and
// never aborts the aggregate.
type Aggregator struct {
	client SearchClient
	stores []string
	ranker Ranker
	logger *slog.Logger
}

// NewAggregator creates an aggregator from config.
func NewAggregator(config *AggregatorConfig) *Aggregator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		client: config.Client,
		stores: config.Stores,
		ranker: config.Ranker,
		logger: logger,
	}
}

// Search queries every merchant concurrently, merges the results in
// configured store order, and applies the ranker if one is set.
func (a *Aggregator) Search(ctx context.Context, query string) []ucp.Product {
	slots := make([][]ucp.Product, len(a.stores))

	var wg sync.WaitGroup
	for i, store := range a.stores {
		wg.Add(1)
		go func(i int, store string) {
			defer wg.Done()
			products, err := a.client.Search(ctx, store, query)
			if err != nil {
				a.logger.Warn("merchant search failed, omitting its results",
					"store", store, "error", err)
				return
			}
			slots[i] = products
		}(i, store)
	}
	wg.Wait()

	merged := make([]ucp.Product, 0)
	for _, products := range slots {
		merged = append(merged, products...)
	}

	if a.ranker == nil || len(merged) == 0 {
		return merged
	}
	ranked, err := a.ranker.Rank(ctx, query, merged)
	if err != nil {
		a.logger.Warn("ranking unavailable, keeping merged order", "error", err)
		return merged
	}
	return ranked
}
