package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/paulomunizdev/sms-sender-pro/internal/models"
	smsprovider "github.com/paulomunizdev/sms-sender-pro/internal/providers/sms"
)

const sentMessage = "Message sent successfully"

// Dispatcher turns one recipient + body into exactly one provider round trip
// and interprets the raw response into a SendOutcome. It never returns an
// error: every failure mode is data, handled locally by the send loop.
type Dispatcher struct {
	logger   zerolog.Logger
	provider smsprovider.Provider
	from     string
}

// NewDispatcher constructs a dispatcher sending from the given number.
func NewDispatcher(provider smsprovider.Provider, from string, logger zerolog.Logger) (*Dispatcher, error) {
	if provider == nil {
		return nil, errors.New("dispatcher: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Dispatcher{
		logger:   logger,
		provider: provider,
		from:     from,
	}, nil
}

// twilioBody is the subset of the Twilio response the dispatcher cares
// about: a sid on success, an error_message on provider rejection.
type twilioBody struct {
	SID          string `json:"sid"`
	ErrorMessage string `json:"error_message"`
}

// Send performs a single dispatch. Transport failures, provider rejections
// and malformed responses all come back as a failed SendOutcome; only a body
// containing a sid counts as success.
func (d *Dispatcher) Send(ctx context.Context, recipient, body string) models.SendOutcome {
	messageID := uuid.NewString()

	raw, err := d.provider.Send(ctx, &smsprovider.Payload{
		MessageID: messageID,
		From:      d.from,
		To:        recipient,
		Body:      body,
	})
	if err != nil {
		d.logger.Warn().
			Str("message_id", messageID).
			Str("to", recipient).
			Err(err).
			Msg("sms send failed at transport")
		return models.SendOutcome{Message: "Connection failed: " + err.Error()}
	}

	// A parse failure is reserved for malformed JSON. Valid JSON of the
	// wrong shape (an array, a bare string) carries neither field, so it
	// falls through to the unknown-response branch with parsed left zero.
	var parsed twilioBody
	if err := json.Unmarshal([]byte(raw.Body), &parsed); err != nil && !json.Valid([]byte(raw.Body)) {
		d.logger.Warn().
			Str("message_id", messageID).
			Str("to", recipient).
			Int("code", raw.Code).
			Err(err).
			Msg("sms response body is not valid json")
		return models.SendOutcome{Message: "Error parsing response: " + err.Error()}
	}

	switch {
	case parsed.SID != "":
		d.logger.Info().
			Str("message_id", messageID).
			Str("to", recipient).
			Str("sid", parsed.SID).
			Msg("sms sent")
		return models.SendOutcome{Success: true, Message: sentMessage, SID: parsed.SID}
	case parsed.ErrorMessage != "":
		d.logger.Warn().
			Str("message_id", messageID).
			Str("to", recipient).
			Int("code", raw.Code).
			Str("error_message", parsed.ErrorMessage).
			Msg("sms rejected by provider")
		return models.SendOutcome{Message: "Twilio Error: " + parsed.ErrorMessage}
	default:
		d.logger.Warn().
			Str("message_id", messageID).
			Str("to", recipient).
			Int("code", raw.Code).
			Msg("sms response shape not recognized")
		return models.SendOutcome{Message: "Unknown response: " + raw.Body}
	}
}
