// Package ucp implements the agent side of the UCP payment protocol: a
// challenge-response handshake that authorizes a payment against a single
// merchant, plus the cart and settlement types shared by the packages that
// orchestrate it across many merchants at once.
//
// The protocol is three steps. The agent opens a session carrying the
// proposed total, the merchant answers 402 Payment Required with a single-use
// challenge in the X-UCP-Challenge header, and the agent proves authorization
// by signing the challenge concatenated with the canonical amount encoding
// and submitting the base64 signature as the X-UCP-Mandate header. See the
// http subpackage for the handshake client and the settle subpackage for the
// concurrent multi-merchant orchestrator.
package ucp
