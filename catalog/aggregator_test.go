package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ucp "github.com/Rakinzi/UCP"
)

type fakeSearch struct {
	results map[string][]ucp.Product
}

func (f *fakeSearch) Search(_ context.Context, store, _ string) ([]ucp.Product, error) {
	products, ok := f.results[store]
	if !ok {
		return nil, fmt.Errorf("connect %s: connection refused", store)
	}
	return products, nil
}

type reverseRanker struct{}

func (reverseRanker) Rank(_ context.Context, _ string, products []ucp.Product) ([]ucp.Product, error) {
	reversed := make([]ucp.Product, len(products))
	for i, p := range products {
		reversed[len(products)-1-i] = p
	}
	return reversed, nil
}

type failingRanker struct{}

func (failingRanker) Rank(context.Context, string, []ucp.Product) ([]ucp.Product, error) {
	return nil, errors.New("model timed out")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchMergesAllStores(t *testing.T) {
	aggregator := NewAggregator(&AggregatorConfig{
		Client: &fakeSearch{results: map[string][]ucp.Product{
			"http://a": {{ID: "a1"}, {ID: "a2"}},
			"http://b": {{ID: "b1"}},
		}},
		Stores: []string{"http://a", "http://b"},
		Logger: discardLogger(),
	})

	merged := aggregator.Search(context.Background(), "anything")
	require.Len(t, merged, 3)
	assert.Equal(t, "a1", merged[0].ID)
	assert.Equal(t, "b1", merged[2].ID)
}

func TestSearchOmitsUnreachableStore(t *testing.T) {
	aggregator := NewAggregator(&AggregatorConfig{
		Client: &fakeSearch{results: map[string][]ucp.Product{
			"http://a": {{ID: "a1"}},
		}},
		Stores: []string{"http://a", "http://down"},
		Logger: discardLogger(),
	})

	merged := aggregator.Search(context.Background(), "anything")
	require.Len(t, merged, 1)
	assert.Equal(t, "a1", merged[0].ID)
}

func TestSearchAppliesRanker(t *testing.T) {
	aggregator := NewAggregator(&AggregatorConfig{
		Client: &fakeSearch{results: map[string][]ucp.Product{
			"http://a": {{ID: "first"}, {ID: "second"}},
		}},
		Stores: []string{"http://a"},
		Ranker: reverseRanker{},
		Logger: discardLogger(),
	})

	ranked := aggregator.Search(context.Background(), "anything")
	require.Len(t, ranked, 2)
	assert.Equal(t, "second", ranked[0].ID)
}

func TestSearchKeepsMergedOrderWhenRankerFails(t *testing.T) {
	aggregator := NewAggregator(&AggregatorConfig{
		Client: &fakeSearch{results: map[string][]ucp.Product{
			"http://a": {{ID: "first"}, {ID: "second"}},
		}},
		Stores: []string{"http://a"},
		Ranker: failingRanker{},
		Logger: discardLogger(),
	})

	merged := aggregator.Search(context.Background(), "anything")
	require.Len(t, merged, 2)
	assert.Equal(t, "first", merged[0].ID)
	assert.Equal(t, "second", merged[1].ID)
}

func TestSearchNoStores(t *testing.T) {
	aggregator := NewAggregator(&AggregatorConfig{
		Client: &fakeSearch{},
		Logger: discardLogger(),
	})
	assert.Empty(t, aggregator.Search(context.Background(), "anything"))
}
