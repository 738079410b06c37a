package http

import "net/http"

// HostRewriteTransport rewrites a fixed set of host:port pairs on outgoing
// requests. Merchant addresses handed to the agent are often the ones usable
// from outside a sandboxed network (localhost:3001 and friends); the rewrite
// table maps them to the service names that resolve from inside it. The
// table encodes deployment topology, not protocol logic, so it is injected
// via configuration rather than baked in.
type HostRewriteTransport struct {
	// Rules maps request host:port to replacement host:port. Hosts with no
	// entry pass through untouched.
	Rules map[string]string

	// Base is the underlying transport (optional, defaults to
	// http.DefaultTransport).
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *HostRewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target, ok := t.Rules[req.URL.Host]
	if !ok {
		return t.base().RoundTrip(req)
	}
	rewritten := req.Clone(req.Context())
	rewritten.URL.Host = target
	rewritten.Host = target
	return t.base().RoundTrip(rewritten)
}

func (t *HostRewriteTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// DefaultHostRewrites is the rewrite table for the stock docker-compose
// topology: loopback ports exposed to the host mapped to the in-network
// store services.
func DefaultHostRewrites() map[string]string {
	return map[string]string{
		"localhost:3001": "store1:3000",
		"127.0.0.1:3001": "store1:3000",
		"localhost:3002": "store2:3000",
		"127.0.0.1:3002": "store2:3000",
		"localhost:3003": "store3:3000",
		"127.0.0.1:3003": "store3:3000",
		"localhost:4001": "store1-frontend:3000",
		"127.0.0.1:4001": "store1-frontend:3000",
		"localhost:4002": "store2-frontend:3000",
		"127.0.0.1:4002": "store2-frontend:3000",
		"localhost:4003": "store3-frontend:3000",
		"127.0.0.1:4003": "store3-frontend:3000",
	}
}
