// Package cart resolves raw cart requests into priced line items and
// per-merchant totals using live catalog lookups.
package cart

import (
	"context"
	"log/slog"
	"sync"

	ucp "github.com/Rakinzi/UCP"
)

// CatalogClient is the one catalog operation the resolver needs. The http
// package's MerchantClient satisfies it.
type CatalogClient interface {
	Product(ctx context.Context, store, productID string) (ucp.Product, error)
}

// Resolver prices cart items against merchant catalogs.
type Resolver struct {
	catalog CatalogClient
	logger  *slog.Logger
}

// NewResolver creates a resolver. A nil logger falls back to slog.Default.
func NewResolver(catalog CatalogClient, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// Resolve looks up every requested item concurrently and returns the line
// items that priced successfully, in request order. An item whose lookup
// faults in any way (unreachable merchant, unknown product, malformed price)
// is dropped from the result rather than failing the cart: a partially
// resolvable cart resolves partially.
func (r *Resolver) Resolve(ctx context.Context, items []ucp.CartItem) []ucp.LineItem {
	// Each task writes only its own slot; the slice is assembled after the
	// join, so no accumulation happens during the concurrent phase.
	slots := make([]*ucp.LineItem, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item ucp.CartItem) {
			defer wg.Done()
			product, err := r.catalog.Product(ctx, item.Store, item.ProductID)
			if err != nil {
				r.logger.Warn("dropping unresolvable cart item",
					"store", item.Store,
					"product_id", item.ProductID,
					"error", err)
				return
			}
			lineTotal, ok := product.Price.Mul(item.Quantity)
			if !ok {
				r.logger.Warn("dropping cart item with out-of-range line total",
					"store", item.Store,
					"product_id", item.ProductID,
					"price", product.Price,
					"quantity", item.Quantity)
				return
			}
			slots[i] = &ucp.LineItem{
				Store:     item.Store,
				ProductID: item.ProductID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  item.Quantity,
				LineTotal: lineTotal,
			}
		}(i, item)
	}
	wg.Wait()

	resolved := make([]ucp.LineItem, 0, len(items))
	for _, slot := range slots {
		if slot != nil {
			resolved = append(resolved, *slot)
		}
	}
	return resolved
}

// Totals groups line items by merchant, in order of first appearance, and
// sums their line totals. The sum of all returned totals always equals the
// sum of all line totals.
func Totals(items []ucp.LineItem) []ucp.MerchantTotal {
	index := make(map[string]int)
	totals := make([]ucp.MerchantTotal, 0)
	for _, item := range items {
		i, ok := index[item.Store]
		if !ok {
			i = len(totals)
			index[item.Store] = i
			totals = append(totals, ucp.MerchantTotal{Store: item.Store})
		}
		totals[i].Total += item.LineTotal
	}
	return totals
}

// BuildInvoice assembles the full invoice view over a set of resolved items.
func BuildInvoice(items []ucp.LineItem) ucp.Invoice {
	totals := Totals(items)
	var grand ucp.Money
	for _, t := range totals {
		grand += t.Total
	}
	return ucp.Invoice{Items: items, StoreTotals: totals, Total: grand}
}
