package sms

import (
	"context"
	"time"
)

// Payload encapsulates the data required to send one SMS via a provider.
type Payload struct {
	MessageID string
	From      string
	To        string
	Body      string
}

// RawResponse describes the low-level provider response: the HTTP status and
// the body exactly as received, before any interpretation.
type RawResponse struct {
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider represents an outbound SMS provider (e.g. Twilio). Send performs
// exactly one network round trip; an error is returned only for transport
// level failures, never for provider-side rejections, which arrive in the
// response body.
type Provider interface {
	Send(ctx context.Context, payload *Payload) (*RawResponse, error)
}
