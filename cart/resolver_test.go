package cart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ucp "github.com/Rakinzi/UCP"
)

type fakeCatalog struct {
	products map[string]ucp.Product // keyed by store + "/" + id
}

func (f *fakeCatalog) Product(_ context.Context, store, productID string) (ucp.Product, error) {
	p, ok := f.products[store+"/"+productID]
	if !ok {
		return ucp.Product{}, fmt.Errorf("no such product %s at %s", productID, store)
	}
	return p, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolvePricesItems(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]ucp.Product{
		"http://a/p1": {Name: "Widget", Price: 999},
	}}
	resolver := NewResolver(catalog, discardLogger())

	items := resolver.Resolve(context.Background(), []ucp.CartItem{
		{Store: "http://a", ProductID: "p1", Quantity: 2},
	})

	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].Name)
	assert.Equal(t, ucp.Money(999), items[0].Price)
	assert.Equal(t, ucp.Money(1998), items[0].LineTotal)
}

func TestResolveDropsFailedLookupsSilently(t *testing.T) {
	catalog := &fakeCatalog{products: map[string]ucp.Product{
		"http://a/p1": {Name: "Widget", Price: 500},
		"http://b/p2": {Name: "Gadget", Price: 750},
	}}
	resolver := NewResolver(catalog, discardLogger())

	items := resolver.Resolve(context.Background(), []ucp.CartItem{
		{Store: "http://a", ProductID: "p1", Quantity: 1},
		{Store: "http://down", ProductID: "p9", Quantity: 3},
		{Store: "http://b", ProductID: "p2", Quantity: 2},
	})

	// The unreachable item vanishes; the others survive in request order.
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "p2", items[1].ProductID)
}

func TestResolveDropsItemsWithOverflowingLineTotal(t *testing.T) {
	// A merchant price near integer range times a large quantity must drop
	// the line item, not wrap the total negative.
	catalog := &fakeCatalog{products: map[string]ucp.Product{
		"http://a/huge": {Name: "Huge", Price: ucp.Money(math.MaxInt64/2 + 1)},
		"http://a/p1":   {Name: "Widget", Price: 999},
	}}
	resolver := NewResolver(catalog, discardLogger())

	items := resolver.Resolve(context.Background(), []ucp.CartItem{
		{Store: "http://a", ProductID: "huge", Quantity: 2},
		{Store: "http://a", ProductID: "p1", Quantity: 1},
	})

	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, ucp.Money(999), items[0].LineTotal)
}

func TestResolveEmptyCart(t *testing.T) {
	resolver := NewResolver(&fakeCatalog{}, discardLogger())
	assert.Empty(t, resolver.Resolve(context.Background(), nil))
}

func TestTotalsGroupByMerchant(t *testing.T) {
	items := []ucp.LineItem{
		{Store: "http://a", LineTotal: 1000},
		{Store: "http://b", LineTotal: 2500},
		{Store: "http://a", LineTotal: 500},
	}

	totals := Totals(items)
	require.Len(t, totals, 2)
	assert.Equal(t, ucp.MerchantTotal{Store: "http://a", Total: 1500}, totals[0])
	assert.Equal(t, ucp.MerchantTotal{Store: "http://b", Total: 2500}, totals[1])
}

func TestTotalsConserveLineTotals(t *testing.T) {
	items := []ucp.LineItem{
		{Store: "a", LineTotal: 1998},
		{Store: "b", LineTotal: 1},
		{Store: "a", LineTotal: 333},
		{Store: "c", LineTotal: 49900},
	}

	var itemSum ucp.Money
	for _, item := range items {
		itemSum += item.LineTotal
	}
	var totalSum ucp.Money
	for _, total := range Totals(items) {
		totalSum += total.Total
	}
	assert.Equal(t, itemSum, totalSum)
}

func TestBuildInvoiceExample(t *testing.T) {
	// Cart of two p1 at 9.99 resolves to a 19.98 line, total and grand total.
	catalog := &fakeCatalog{products: map[string]ucp.Product{
		"http://a/p1": {Name: "Widget", Price: 999},
	}}
	resolver := NewResolver(catalog, discardLogger())

	items := resolver.Resolve(context.Background(), []ucp.CartItem{
		{Store: "http://a", ProductID: "p1", Quantity: 2},
	})
	invoice := BuildInvoice(items)

	require.Len(t, invoice.StoreTotals, 1)
	assert.Equal(t, ucp.Money(1998), invoice.StoreTotals[0].Total)
	assert.Equal(t, ucp.Money(1998), invoice.Total)
}
