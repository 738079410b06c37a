// Package settle fans the payment handshake out across every merchant owed
// money and aggregates one outcome per merchant.
package settle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ucp "github.com/Rakinzi/UCP"
)

// DefaultDirectAmount is the fixed amount settled against each merchant in
// direct mode, when no cart supplies a real total.
const DefaultDirectAmount = ucp.Money(10000) // 100.00

// Gateway executes one handshake against one merchant. The http package's
// MerchantClient satisfies it.
type Gateway interface {
	Settle(ctx context.Context, store string, amount ucp.Money) ucp.PaymentOutcome
}

// Orchestrator runs independent handshakes concurrently. Merchants never
// block one another, and a fault in one handshake never reaches its siblings.
type Orchestrator struct {
	gateway Gateway
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger falls back to
// slog.Default.
func NewOrchestrator(gateway Gateway, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{gateway: gateway, logger: logger}
}

// SettleAll pays every merchant total concurrently and returns exactly one
// outcome per input entry. Outcome order is unspecified relative to input
// order; callers match outcomes to merchants by address. Unlike catalog
// lookups, nothing is dropped here: a merchant that cannot be settled still
// yields an error outcome.
func (o *Orchestrator) SettleAll(ctx context.Context, totals []ucp.MerchantTotal) []ucp.PaymentOutcome {
	outcomes := make([]ucp.PaymentOutcome, len(totals))

	var wg sync.WaitGroup
	for i, total := range totals {
		wg.Add(1)
		go func(i int, total ucp.MerchantTotal) {
			defer wg.Done()
			outcomes[i] = o.settleOne(ctx, total.Store, total.Total)
		}(i, total)
	}
	wg.Wait()

	return outcomes
}

// SettleDirect pays a fixed default amount to each listed merchant,
// bypassing cart resolution. Used to exercise the handshake directly.
func (o *Orchestrator) SettleDirect(ctx context.Context, stores []string) []ucp.PaymentOutcome {
	totals := make([]ucp.MerchantTotal, len(stores))
	for i, store := range stores {
		totals[i] = ucp.MerchantTotal{Store: store, Total: DefaultDirectAmount}
	}
	return o.SettleAll(ctx, totals)
}

// settleOne runs a single handshake and converts anything it throws,
// including a panic, into an outcome for that merchant alone.
func (o *Orchestrator) settleOne(ctx context.Context, store string, amount ucp.Money) (outcome ucp.PaymentOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = ucp.PaymentOutcome{
				Store:   store,
				Status:  ucp.OutcomeError,
				Details: fmt.Sprintf("handshake panicked: %v", r),
			}
		}
	}()

	outcome = o.gateway.Settle(ctx, store, amount)
	o.logger.Info("settlement attempt finished",
		"attempt_id", outcome.AttemptID,
		"store", store,
		"amount", amount,
		"status", outcome.Status)
	return outcome
}
