// Package http contains the merchant-facing HTTP clients: the payment
// handshake gateway, the catalog lookup client, and the host-rewrite
// transport used to reach merchants from inside the agent's network.
package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	ucp "github.com/Rakinzi/UCP"
)

// Protocol headers exchanged during the handshake.
const (
	// ChallengeHeader carries the merchant's single-use base64 challenge on a
	// 402 session-open response.
	ChallengeHeader = "X-UCP-Challenge"
	// MandateHeader carries the agent's base64 signature on the completion
	// request.
	MandateHeader = "X-UCP-Mandate"
)

const (
	sessionsPath = "/sessions"
	completePath = "/complete"
)

// Signer produces signatures over handshake payloads. identity.Identity
// satisfies it.
type Signer interface {
	Sign(message []byte) []byte
}

// ClientConfig configures the merchant client.
type ClientConfig struct {
	// Signer signs handshake mandates. Required for Settle.
	Signer Signer

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *http.Client

	// Timeout for requests when no HTTPClient is supplied (optional,
	// defaults to 15s).
	Timeout time.Duration

	// HostRewrites remaps outside host:port pairs to in-network addresses
	// before any outbound call (optional).
	HostRewrites map[string]string
}

// MerchantClient talks to one merchant at a time. Every call is a pure
// function of its arguments; the client holds no per-merchant state, so a
// single instance is shared by all concurrent settlement and catalog tasks.
type MerchantClient struct {
	signer     Signer
	httpClient *http.Client
}

// NewMerchantClient creates a merchant client from config.
func NewMerchantClient(config *ClientConfig) *MerchantClient {
	if config == nil {
		config = &ClientConfig{}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	if len(config.HostRewrites) > 0 {
		httpClient = &http.Client{
			Timeout:   httpClient.Timeout,
			Transport: &HostRewriteTransport{Rules: config.HostRewrites, Base: httpClient.Transport},
		}
	}

	return &MerchantClient{
		signer:     config.Signer,
		httpClient: httpClient,
	}
}

// ============================================================================
// Payment Handshake
// ============================================================================

type sessionRequest struct {
	OrderTotal ucp.Money `json:"order_total"`
}

type completeRequest struct {
	OrderTotal ucp.Money `json:"order_total"`
	Challenge  string    `json:"challenge"`
}

// Settle runs the full challenge/sign/complete handshake against one
// merchant and classifies the result. It never returns an error: transport
// faults become OutcomeError, protocol rejections become OutcomeFailed.
// Nothing is retried; the challenge is single-use by contract.
func (c *MerchantClient) Settle(ctx context.Context, store string, amount ucp.Money) ucp.PaymentOutcome {
	outcome := ucp.PaymentOutcome{
		AttemptID: uuid.NewString(),
		Store:     store,
	}

	err := c.handshake(ctx, store, amount)
	var protoErr *ucp.ProtocolError
	switch {
	case err == nil:
		outcome.Status = ucp.OutcomeSuccess
		outcome.Details = "payment confirmed"
	case errors.As(err, &protoErr):
		outcome.Status = ucp.OutcomeFailed
		outcome.Details = protoErr.Detail
	default:
		outcome.Status = ucp.OutcomeError
		outcome.Details = err.Error()
	}
	return outcome
}

func (c *MerchantClient) handshake(ctx context.Context, store string, amount ucp.Money) error {
	// Step 1: open a session carrying the proposed total. The merchant either
	// accepts outright or answers 402 with a challenge header.
	resp, err := c.postJSON(ctx, store+sessionsPath, sessionRequest{OrderTotal: amount}, "")
	if err != nil {
		return fmt.Errorf("session open: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	challengeB64 := resp.Header.Get(ChallengeHeader)
	if challengeB64 == "" {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			// Immediate acceptance, no handshake required.
			return nil
		}
		if resp.StatusCode == http.StatusPaymentRequired {
			return ucp.NewProtocolError(ucp.ErrCodeMissingChallenge,
				"merchant returned 402 without a %s header", ChallengeHeader)
		}
		return ucp.NewProtocolError(ucp.ErrCodeUnexpectedStatus,
			"unexpected status %d", resp.StatusCode)
	}

	// Step 2: recover the raw challenge bytes.
	challenge, err := base64.StdEncoding.DecodeString(challengeB64)
	if err != nil {
		return fmt.Errorf("decode challenge: %w", err)
	}

	// Step 3: the mandate is the signature over challenge ++ canonical amount.
	payload := append(challenge, amount.CanonicalBytes()...)
	mandate := base64.StdEncoding.EncodeToString(c.signer.Sign(payload))

	// Step 4: submit the mandate. Only 201 Created confirms the payment.
	resp, err = c.postJSON(ctx, store+completePath, completeRequest{
		OrderTotal: amount,
		Challenge:  challengeB64,
	}, mandate)
	if err != nil {
		return fmt.Errorf("completion: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return ucp.NewProtocolError(ucp.ErrCodeCompletionRejected,
			"verification failed: %s", string(body))
	}
	return nil
}

func (c *MerchantClient) postJSON(ctx context.Context, url string, payload interface{}, mandate string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if mandate != "" {
		req.Header.Set(MandateHeader, mandate)
	}
	return c.httpClient.Do(req)
}
