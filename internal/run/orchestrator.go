package run

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/paulomunizdev/sms-sender-pro/internal/config"
	"github.com/paulomunizdev/sms-sender-pro/internal/console"
	"github.com/paulomunizdev/sms-sender-pro/internal/models"
	"github.com/paulomunizdev/sms-sender-pro/internal/recipients"
	"github.com/paulomunizdev/sms-sender-pro/internal/util"
)

// State identifies where in the run lifecycle the orchestrator is. The
// machine only ever moves forward; Aborted is terminal.
type State string

const (
	StateConfigLoaded   State = "config_loaded"
	StateNumbersLoaded  State = "numbers_loaded"
	StateMessageEntered State = "message_entered"
	StateConfirmed      State = "confirmed"
	StateSending        State = "sending"
	StateReported       State = "reported"
	StateAborted        State = "aborted"
)

// Dispatcher is the single operation the send loop needs.
type Dispatcher interface {
	Send(ctx context.Context, recipient, body string) models.SendOutcome
}

// LoadFunc loads and classifies the recipient list.
type LoadFunc func(path string) (*recipients.Result, error)

// Option customises the orchestrator, mostly for tests.
type Option func(*Orchestrator)

// WithLoader overrides how the recipient list is loaded.
func WithLoader(load LoadFunc) Option {
	return func(o *Orchestrator) {
		if load != nil {
			o.load = load
		}
	}
}

// WithSleep overrides the sleep used while rendering pacing ticks.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// Orchestrator sequences a complete run: recipient loading, message entry,
// confirmation, the strictly sequential send loop with pacing, and the final
// tally. Construction requires a validated config, so it starts in
// StateConfigLoaded; the Init transition is the config.Load call in cmd.
type Orchestrator struct {
	cfg        *config.Config
	logger     zerolog.Logger
	out        *console.Printer
	in         *bufio.Reader
	dispatcher Dispatcher
	load       LoadFunc

	// limiter owns the pacing math: one send per PauseInterval.
	limiter *rate.Limiter
	sleep   func(time.Duration)

	state  State
	report models.Report
}

// New builds an orchestrator reading prompts from in and rendering to out.
func New(cfg *config.Config, dispatcher Dispatcher, in io.Reader, out *console.Printer, logger zerolog.Logger, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("orchestrator: config is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("orchestrator: dispatcher is required")
	}
	if out == nil {
		return nil, fmt.Errorf("orchestrator: printer is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	interval := cfg.Sending.PauseInterval
	if interval <= 0 {
		interval = time.Second
	}

	o := &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		out:        out,
		in:         bufio.NewReader(in),
		dispatcher: dispatcher,
		load:       recipients.LoadFile,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		sleep:      time.Sleep,
		state:      StateConfigLoaded,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Report returns the counters accumulated by the last run.
func (o *Orchestrator) Report() models.Report { return o.report }

// Run drives the state machine to completion. A returned *models.StartupError
// means nothing was sent and the process should exit non-zero; a nil return
// covers both completed and user-cancelled runs.
func (o *Orchestrator) Run(ctx context.Context) error {
	list, err := o.loadNumbers()
	if err != nil {
		o.state = StateAborted
		return err
	}
	o.state = StateNumbersLoaded

	body, ok := o.promptMessage()
	if !ok {
		return o.cancel()
	}
	o.state = StateMessageEntered

	if !o.confirm(body, len(list.Valid)) {
		return o.cancel()
	}
	o.state = StateConfirmed

	o.sendAll(ctx, list.Valid, body)
	o.state = StateReported
	return nil
}

func (o *Orchestrator) cancel() error {
	o.out.Warn("Operation cancelled by user.")
	o.logger.Info().Msg("run cancelled by user")
	o.state = StateAborted
	return nil
}

// loadNumbers reads the recipient file, renders per-line classification with
// a progress bar, and fails the run when no valid number remains.
func (o *Orchestrator) loadNumbers() (*recipients.Result, error) {
	path := o.cfg.Sending.NumbersFile
	o.out.Info("\nReading phone numbers from " + path + "...")

	list, err := o.load(path)
	if err != nil {
		return nil, err
	}

	total := len(list.Valid) + len(list.Invalid)
	shown := 0
	vi, ii := 0, 0
	// Merge the two classified slices back into file order for display.
	for vi < len(list.Valid) || ii < len(list.Invalid) {
		useValid := ii >= len(list.Invalid) ||
			(vi < len(list.Valid) && list.Valid[vi].Line < list.Invalid[ii].Line)

		shown++
		o.out.Progress(shown, total)
		o.out.ClearLine()
		if useValid {
			o.out.OK("Valid number: " + util.FormatPhone(list.Valid[vi].Number))
			vi++
		} else {
			o.out.Bad(fmt.Sprintf("Invalid number on line %d: %s", list.Invalid[ii].Line, list.Invalid[ii].Raw))
			ii++
		}
	}

	if len(list.Invalid) > 0 {
		o.out.Warn(fmt.Sprintf("\nWarning: Found %d invalid numbers!", len(list.Invalid)))
		fmt.Fprintln(o.out.Writer(), "Numbers should include country code (e.g., +5511999999999)")
	}

	if len(list.Valid) == 0 {
		return nil, models.NewStartupError(
			fmt.Sprintf("No valid phone numbers found in %s", path),
			"Please check the file and try again.",
		)
	}

	o.logger.Info().
		Int("valid", len(list.Valid)).
		Int("invalid", len(list.Invalid)).
		Msg("recipient list loaded")
	return list, nil
}

// promptMessage asks for the SMS body until a non-empty one is supplied.
// The length limit is displayed, not enforced. A closed input stream counts
// as cancellation.
func (o *Orchestrator) promptMessage() (string, bool) {
	o.out.Section("Message Configuration")
	fmt.Fprintf(o.out.Writer(), "Enter the SMS message to send (max %d characters):\n", o.cfg.Sending.BodyMaxRunes)

	for {
		fmt.Fprintf(o.out.Writer(), "%s ", console.Yellow("Message:"))
		line, err := o.in.ReadString('\n')
		body := strings.TrimRight(line, "\r\n")
		if body != "" {
			return body, true
		}
		if err != nil {
			return "", false
		}
		o.out.Warn("Message cannot be empty. Please enter a message:")
	}
}

// confirm shows the run summary and reads a single y/n answer. Only "y" or
// "Y" proceeds.
func (o *Orchestrator) confirm(body string, count int) bool {
	o.out.Section("Confirmation")
	fmt.Fprintln(o.out.Writer(), "Ready to send messages:")
	fmt.Fprintf(o.out.Writer(), "- From: %s\n", console.Yellow(o.cfg.Twilio.PhoneNumber))
	fmt.Fprintf(o.out.Writer(), "- Recipients: %s\n", console.Yellow(fmt.Sprintf("%d", count)))
	fmt.Fprintf(o.out.Writer(), "- Message length: %s characters\n",
		console.Yellow(fmt.Sprintf("%d/%d", len([]rune(body)), o.cfg.Sending.BodyMaxRunes)))
	fmt.Fprintf(o.out.Writer(), "- Message preview: %s\n\n", console.Yellow(body))
	fmt.Fprint(o.out.Writer(), "Send messages? (y/n): ")

	line, _ := o.in.ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

// sendAll walks the valid list in file order, one dispatch at a time, and
// pauses after every send, the last one included. Failures are counted and
// the loop always runs to completion; there is no early-exit path.
func (o *Orchestrator) sendAll(ctx context.Context, list []models.Recipient, body string) {
	o.state = StateSending
	o.out.Section("Sending Messages")

	total := len(list)
	o.report = models.Report{Total: total}
	start := time.Now()
	o.logger.Info().Int("total", total).Msg("send batch started")

	// Drain the limiter's initial token so the first post-send reservation
	// waits a full interval.
	o.limiter.Allow()

	for i, recipient := range list {
		o.out.SendingLine(i+1, total, recipient.Number)
		outcome := o.dispatcher.Send(ctx, recipient.Number, body)

		if outcome.Success {
			o.out.SendSuccess(outcome.SID)
			o.report.Sent++
		} else {
			o.out.SendFailure(outcome.Message)
			o.report.Failed++
		}

		o.pause()
	}

	o.out.Tally(o.report.Total, o.report.Sent, o.report.Failed)
	if o.report.Failed > 0 {
		o.out.FailureHints()
		o.logger.Warn().
			Int("total", o.report.Total).
			Int("failed", o.report.Failed).
			Dur("dur", time.Since(start)).
			Msg("send batch finished with failures")
	} else {
		o.logger.Info().
			Int("total", o.report.Total).
			Dur("dur", time.Since(start)).
			Msg("send batch finished")
	}
}

// pause reserves the next send slot from the limiter and renders the wait as
// discrete countdown ticks.
func (o *Orchestrator) pause() {
	delay := o.limiter.Reserve().Delay()

	ticks := o.cfg.Sending.PauseTicks
	if ticks <= 0 {
		ticks = 1
	}
	slice := delay / time.Duration(ticks)

	for i := ticks; i > 0; i-- {
		o.out.RateLimitTick(i)
		o.sleep(slice)
	}
	o.out.ClearLine()
}
