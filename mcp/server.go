// Package mcp exposes the agent's operations as MCP tools, so model-driven
// clients can search catalogs and settle payments through the same
// components the HTTP API uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	ucp "github.com/Rakinzi/UCP"
	"github.com/Rakinzi/UCP/cart"
	"github.com/Rakinzi/UCP/catalog"
	"github.com/Rakinzi/UCP/settle"
)

// Config wires the tool handlers to the agent's components.
type Config struct {
	Aggregator   *catalog.Aggregator
	Resolver     *cart.Resolver
	Orchestrator *settle.Orchestrator
}

type toolHandlers struct {
	aggregator   *catalog.Aggregator
	resolver     *cart.Resolver
	orchestrator *settle.Orchestrator
}

// NewServer builds an MCP server with the agent's tool set registered.
func NewServer(config *Config) *mcpsdk.Server {
	h := &toolHandlers{
		aggregator:   config.Aggregator,
		resolver:     config.Resolver,
		orchestrator: config.Orchestrator,
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "ucp-agent",
		Version: "1.0.0",
	}, nil)

	server.AddTool(&mcpsdk.Tool{
		Name:        "search_products",
		Description: "Search every configured merchant's catalog and return merged, relevance-ranked products",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"required": ["query"],
			"properties": {"query": {"type": "string", "minLength": 1}}
		}`),
	}, h.searchProducts)

	server.AddTool(&mcpsdk.Tool{
		Name:        "resolve_cart",
		Description: "Price a cart against live merchant catalogs and return line items, per-merchant totals and the grand total",
		InputSchema: json.RawMessage(cartInputSchema),
	}, h.resolveCart)

	server.AddTool(&mcpsdk.Tool{
		Name:        "pay_cart",
		Description: "Resolve a cart and settle payment with every merchant owed money; returns one outcome per merchant",
		InputSchema: json.RawMessage(cartInputSchema),
	}, h.payCart)

	server.AddTool(&mcpsdk.Tool{
		Name:        "pay_direct",
		Description: "Settle a fixed default amount against each listed merchant, bypassing cart resolution",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"required": ["stores"],
			"properties": {"stores": {"type": "array", "items": {"type": "string"}, "minItems": 1}}
		}`),
	}, h.payDirect)

	return server
}

const cartInputSchema = `{
	"type": "object",
	"required": ["items"],
	"properties": {
		"items": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["store", "product_id", "quantity"],
				"properties": {
					"store": {"type": "string"},
					"product_id": {"type": "string"},
					"quantity": {"type": "integer", "minimum": 1, "maximum": 1000000}
				}
			}
		}
	}
}`

// SSEHandler mounts the MCP server as an HTTP handler.
func SSEHandler(server *mcpsdk.Server) http.Handler {
	return mcpsdk.NewSSEHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, &mcpsdk.SSEOptions{})
}

// ============================================================================
// Tool handlers
// ============================================================================

type searchArgs struct {
	Query string `json:"query"`
}

type cartArgs struct {
	Items []ucp.CartItem `json:"items"`
}

type payDirectArgs struct {
	Stores []string `json:"stores"`
}

func (h *toolHandlers) searchProducts(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args searchArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err), nil
	}
	if args.Query == "" {
		return errorResult(fmt.Errorf("query must not be empty")), nil
	}
	return jsonResult(h.aggregator.Search(ctx, args.Query))
}

func (h *toolHandlers) resolveCart(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	args, err := decodeCartArgs(req)
	if err != nil {
		return errorResult(err), nil
	}
	items := h.resolver.Resolve(ctx, args.Items)
	return jsonResult(cart.BuildInvoice(items))
}

func (h *toolHandlers) payCart(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	args, err := decodeCartArgs(req)
	if err != nil {
		return errorResult(err), nil
	}

	items := h.resolver.Resolve(ctx, args.Items)
	totals := cart.Totals(items)
	owed := totals[:0]
	for _, total := range totals {
		if total.Total > 0 {
			owed = append(owed, total)
		}
	}
	return jsonResult(h.orchestrator.SettleAll(ctx, owed))
}

func (h *toolHandlers) payDirect(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args payDirectArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err), nil
	}
	if len(args.Stores) == 0 {
		return errorResult(fmt.Errorf("stores must not be empty")), nil
	}
	return jsonResult(h.orchestrator.SettleDirect(ctx, args.Stores))
}

func decodeCartArgs(req *mcpsdk.CallToolRequest) (cartArgs, error) {
	var args cartArgs
	if err := decodeArgs(req, &args); err != nil {
		return args, err
	}
	if len(args.Items) == 0 {
		return args, fmt.Errorf("items must not be empty")
	}
	for _, item := range args.Items {
		if item.Store == "" || item.ProductID == "" || item.Quantity < 1 {
			return args, fmt.Errorf("every item needs a store, a product_id and a quantity of at least 1")
		}
		if item.Quantity > ucp.MaxCartQuantity {
			return args, fmt.Errorf("quantity %d exceeds the maximum of %d", item.Quantity, ucp.MaxCartQuantity)
		}
	}
	return args, nil
}

func decodeArgs(req *mcpsdk.CallToolRequest, into interface{}) error {
	if len(req.Params.Arguments) == 0 {
		return fmt.Errorf("missing tool arguments")
	}
	if err := json.Unmarshal(req.Params.Arguments, into); err != nil {
		return fmt.Errorf("decode tool arguments: %w", err)
	}
	return nil
}

func jsonResult(v interface{}) (*mcpsdk.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return errorResult(err), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(out)}},
	}, nil
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}
}
