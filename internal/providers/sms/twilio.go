package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/paulomunizdev/sms-sender-pro/internal/models"
	"github.com/paulomunizdev/sms-sender-pro/internal/util"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TwilioOption customises the behaviour of the Twilio SMS provider.
type TwilioOption func(*TwilioProvider)

// WithTwilioHTTPClient overrides the HTTP client used to talk to Twilio.
func WithTwilioHTTPClient(client HTTPClient) TwilioOption {
	return func(p *TwilioProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithTwilioBaseURL sets the base Twilio API URL. Useful for tests.
func WithTwilioBaseURL(baseURL string) TwilioOption {
	return func(p *TwilioProvider) {
		if strings.TrimSpace(baseURL) != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTwilioClock overrides the clock used for response timestamps.
func WithTwilioClock(now func() time.Time) TwilioOption {
	return func(p *TwilioProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTwilioBodyLimit adjusts how many bytes are retained from the HTTP
// response body.
func WithTwilioBodyLimit(limit int64) TwilioOption {
	return func(p *TwilioProvider) {
		if limit > 0 {
			p.maxBodyBytes = limit
		}
	}
}

// WithTwilioTimeout sets the timeout of the default HTTP client. Ignored when
// a custom client was injected.
func WithTwilioTimeout(d time.Duration) TwilioOption {
	return func(p *TwilioProvider) {
		if d > 0 {
			if c, ok := p.httpClient.(*http.Client); ok {
				c.Timeout = d
			}
		}
	}
}

// TwilioProvider implements Provider against the Twilio Messages API.
type TwilioProvider struct {
	logger       zerolog.Logger
	accountSID   string
	authToken    string
	httpClient   HTTPClient
	baseURL      string
	now          func() time.Time
	maxBodyBytes int64
}

// NewTwilioProvider constructs a Twilio-backed SMS provider.
func NewTwilioProvider(creds models.Credentials, logger zerolog.Logger, opts ...TwilioOption) (*TwilioProvider, error) {
	if strings.TrimSpace(creds.AccountSID) == "" {
		return nil, errors.New("twilio sms provider: account SID is required")
	}
	if strings.TrimSpace(creds.AuthToken) == "" {
		return nil, errors.New("twilio sms provider: auth token is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	provider := &TwilioProvider{
		logger:       logger,
		accountSID:   strings.TrimSpace(creds.AccountSID),
		authToken:    strings.TrimSpace(creds.AuthToken),
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
		maxBodyBytes: 16 * 1024,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}

	return provider, nil
}

// Send delivers the payload via Twilio and returns the raw response. The
// form body is percent-encoded with util.FormEncode to keep the wire
// contract byte-exact.
func (p *TwilioProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("twilio sms provider: payload is required")
	}
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("twilio sms provider: recipient is required")
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(p.accountSID))
	form := "From=" + util.FormEncode(payload.From) +
		"&To=" + util.FormEncode(payload.To) +
		"&Body=" + util.FormEncode(payload.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("twilio sms provider: new request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	p.logger.Debug().
		Str("message_id", payload.MessageID).
		Str("to", payload.To).
		Msg("twilio sms request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio sms provider: http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := p.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	p.logger.Debug().
		Str("message_id", payload.MessageID).
		Int("code", resp.StatusCode).
		Msg("twilio sms response")

	return &RawResponse{
		Code:      resp.StatusCode,
		Body:      body,
		Timestamp: p.now(),
	}, nil
}

func (p *TwilioProvider) readBody(rc io.ReadCloser) (string, error) {
	if rc == nil {
		return "", nil
	}

	limit := p.maxBodyBytes
	if limit <= 0 {
		limit = 16 * 1024
	}

	data, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return "", fmt.Errorf("twilio sms provider: read body: %w", err)
	}
	return string(data), nil
}
