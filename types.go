package ucp

// Product is a catalog entry as returned by a merchant's product API.
// Store is the merchant base URL the product came from; merchants omit it in
// their own responses, the aggregator fills it in when merging.
type Product struct {
	Store       string `json:"store,omitempty"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       Money  `json:"price"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// MaxCartQuantity bounds the per-line quantity accepted from clients. No real
// cart comes close; the bound keeps line totals far away from integer range.
const MaxCartQuantity = 1000000

// CartItem is one requested cart entry: a product at a merchant, with a
// quantity. This is the inbound shape for the invoice and pay operations.
type CartItem struct {
	Store     string `json:"store" binding:"required,merchant_url"`
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,lte=1000000"`
}

// LineItem is a cart entry resolved against the merchant's live catalog.
// Immutable once constructed; LineTotal is always Price * Quantity.
type LineItem struct {
	Store     string `json:"store"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal Money  `json:"line_total"`
}

// MerchantTotal is the aggregate amount owed to one merchant across a cart.
type MerchantTotal struct {
	Store string `json:"store"`
	Total Money  `json:"total"`
}

// Invoice is the resolved view of a cart: the surviving line items, the
// per-merchant totals derived from them, and the grand total.
type Invoice struct {
	Items       []LineItem      `json:"items"`
	StoreTotals []MerchantTotal `json:"store_totals"`
	Total       Money           `json:"total"`
}

// OutcomeStatus is the terminal classification of one merchant's handshake.
type OutcomeStatus string

const (
	// OutcomeSuccess means the merchant confirmed the payment.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailed means the merchant actively rejected the handshake at the
	// protocol level.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeError means the merchant could not be reached or the exchange
	// faulted before the merchant gave a verdict.
	OutcomeError OutcomeStatus = "error"
)

// PaymentOutcome is the result of one settlement attempt against one
// merchant. Every merchant handed to the orchestrator produces exactly one,
// regardless of how its handshake went. AttemptID correlates the outcome
// with log lines from the attempt.
type PaymentOutcome struct {
	AttemptID string        `json:"attempt_id"`
	Store     string        `json:"store"`
	Status    OutcomeStatus `json:"status"`
	Details   string        `json:"details"`
}
