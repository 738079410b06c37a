package settle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ucp "github.com/Rakinzi/UCP"
)

type fakeGateway struct {
	mu      sync.Mutex
	calls   map[string]int
	settle  func(store string, amount ucp.Money) ucp.PaymentOutcome
	amounts map[string]ucp.Money
}

func newFakeGateway(settle func(store string, amount ucp.Money) ucp.PaymentOutcome) *fakeGateway {
	return &fakeGateway{
		calls:   make(map[string]int),
		amounts: make(map[string]ucp.Money),
		settle:  settle,
	}
}

func (g *fakeGateway) Settle(_ context.Context, store string, amount ucp.Money) ucp.PaymentOutcome {
	g.mu.Lock()
	g.calls[store]++
	g.amounts[store] = amount
	g.mu.Unlock()
	if g.settle != nil {
		return g.settle(store, amount)
	}
	return ucp.PaymentOutcome{Store: store, Status: ucp.OutcomeSuccess, Details: "payment confirmed"}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSettleAllReturnsOneOutcomePerMerchant(t *testing.T) {
	gateway := newFakeGateway(nil)
	orchestrator := NewOrchestrator(gateway, discardLogger())

	totals := []ucp.MerchantTotal{
		{Store: "http://a", Total: 100},
		{Store: "http://b", Total: 200},
		{Store: "http://c", Total: 300},
	}
	outcomes := orchestrator.SettleAll(context.Background(), totals)

	require.Len(t, outcomes, len(totals))
	seen := make(map[string]int)
	for _, outcome := range outcomes {
		seen[outcome.Store]++
	}
	for _, total := range totals {
		assert.Equal(t, 1, seen[total.Store], "merchant %s", total.Store)
		assert.Equal(t, 1, gateway.calls[total.Store])
	}
}

func TestSettleAllIsolatesFailures(t *testing.T) {
	gateway := newFakeGateway(func(store string, _ ucp.Money) ucp.PaymentOutcome {
		if store == "http://bad" {
			return ucp.PaymentOutcome{Store: store, Status: ucp.OutcomeError, Details: "connection refused"}
		}
		return ucp.PaymentOutcome{Store: store, Status: ucp.OutcomeSuccess}
	})
	orchestrator := NewOrchestrator(gateway, discardLogger())

	outcomes := orchestrator.SettleAll(context.Background(), []ucp.MerchantTotal{
		{Store: "http://good", Total: 100},
		{Store: "http://bad", Total: 100},
	})

	byStore := make(map[string]ucp.PaymentOutcome)
	for _, outcome := range outcomes {
		byStore[outcome.Store] = outcome
	}
	assert.Equal(t, ucp.OutcomeSuccess, byStore["http://good"].Status)
	assert.Equal(t, ucp.OutcomeError, byStore["http://bad"].Status)
}

func TestSettleAllRecoversPanics(t *testing.T) {
	gateway := newFakeGateway(func(store string, _ ucp.Money) ucp.PaymentOutcome {
		if store == "http://boom" {
			panic("wire exploded")
		}
		return ucp.PaymentOutcome{Store: store, Status: ucp.OutcomeSuccess}
	})
	orchestrator := NewOrchestrator(gateway, discardLogger())

	outcomes := orchestrator.SettleAll(context.Background(), []ucp.MerchantTotal{
		{Store: "http://boom", Total: 100},
		{Store: "http://fine", Total: 100},
	})

	require.Len(t, outcomes, 2)
	byStore := make(map[string]ucp.PaymentOutcome)
	for _, outcome := range outcomes {
		byStore[outcome.Store] = outcome
	}
	assert.Equal(t, ucp.OutcomeError, byStore["http://boom"].Status)
	assert.Contains(t, byStore["http://boom"].Details, "wire exploded")
	assert.Equal(t, ucp.OutcomeSuccess, byStore["http://fine"].Status)
}

func TestSettleDirectUsesDefaultAmount(t *testing.T) {
	gateway := newFakeGateway(nil)
	orchestrator := NewOrchestrator(gateway, discardLogger())

	outcomes := orchestrator.SettleDirect(context.Background(), []string{"http://a", "http://b"})

	require.Len(t, outcomes, 2)
	assert.Equal(t, DefaultDirectAmount, gateway.amounts["http://a"])
	assert.Equal(t, DefaultDirectAmount, gateway.amounts["http://b"])
}

func TestSettleAllEmptyInput(t *testing.T) {
	orchestrator := NewOrchestrator(newFakeGateway(nil), discardLogger())
	assert.Empty(t, orchestrator.SettleAll(context.Background(), nil))
}
