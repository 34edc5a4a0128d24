package sms

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scenario enumerates the mock behaviours supported by the SMS provider.
type Scenario string

const (
	// ScenarioSuccess returns a Twilio-shaped body carrying a sid.
	ScenarioSuccess Scenario = "success"
	// ScenarioRejected returns a body carrying an error_message.
	ScenarioRejected Scenario = "rejected"
	// ScenarioGarbage returns a body that is not valid JSON.
	ScenarioGarbage Scenario = "garbage"
	// ScenarioUnknown returns valid JSON with neither sid nor error_message.
	ScenarioUnknown Scenario = "unknown"
	// ScenarioTransportError fails the call at the transport level.
	ScenarioTransportError Scenario = "transport_error"
)

// Option customises the mock provider.
type Option func(*MockProvider)

// WithScenario sets the scenario used for every send.
func WithScenario(s Scenario) Option {
	return func(p *MockProvider) {
		p.scenario = s
	}
}

// WithScript sets a per-call scenario sequence; calls past the end of the
// script fall back to the default scenario.
func WithScript(script ...Scenario) Option {
	return func(p *MockProvider) {
		p.script = script
	}
}

// WithClock overrides the clock used to timestamp responses.
func WithClock(now func() time.Time) Option {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider is a deterministic SMS provider used for tests. It records
// every payload it receives in order.
type MockProvider struct {
	logger   zerolog.Logger
	scenario Scenario
	script   []Scenario
	now      func() time.Time

	mu    sync.Mutex
	calls int
	Sent  []Payload
}

// NewMockProvider constructs a mock SMS provider.
func NewMockProvider(logger zerolog.Logger, opts ...Option) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:   logger,
		scenario: ScenarioSuccess,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send simulates one provider round trip according to the configured
// scenario.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("sms mock: payload is required")
	}
	if payload.To == "" {
		return nil, errors.New("sms mock: recipient is required")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p.mu.Lock()
	call := p.calls
	p.calls++
	p.Sent = append(p.Sent, *payload)
	p.mu.Unlock()

	scenario := p.scenario
	if call < len(p.script) {
		scenario = p.script[call]
	}

	resp := &RawResponse{Code: 201, Timestamp: p.now()}
	switch scenario {
	case ScenarioSuccess:
		resp.Body = fmt.Sprintf(`{"sid":"SM%08d","status":"queued"}`, call)
		return resp, nil
	case ScenarioRejected:
		resp.Code = 400
		resp.Body = `{"error_message":"The 'To' number is not a valid phone number.","code":21211}`
		return resp, nil
	case ScenarioGarbage:
		resp.Code = 200
		resp.Body = "oops"
		return resp, nil
	case ScenarioUnknown:
		resp.Code = 200
		resp.Body = `{"status":"pending"}`
		return resp, nil
	case ScenarioTransportError:
		return nil, errors.New("sms mock: connection refused")
	default:
		return nil, fmt.Errorf("sms mock: unknown scenario %q", scenario)
	}
}

// Calls reports how many sends the mock has served.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
