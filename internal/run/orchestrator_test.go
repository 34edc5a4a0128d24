package run

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulomunizdev/sms-sender-pro/internal/config"
	"github.com/paulomunizdev/sms-sender-pro/internal/console"
	"github.com/paulomunizdev/sms-sender-pro/internal/dispatch"
	"github.com/paulomunizdev/sms-sender-pro/internal/models"
	smsprovider "github.com/paulomunizdev/sms-sender-pro/internal/providers/sms"
	"github.com/paulomunizdev/sms-sender-pro/internal/recipients"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", LogLevel: "info"},
		Twilio: models.Credentials{
			AccountSID:  "AC123",
			AuthToken:   "token",
			PhoneNumber: "+15550001111",
		},
		Sending: config.SendingConfig{
			NumbersFile:   "numbers.txt",
			PauseInterval: time.Millisecond,
			PauseTicks:    3,
			BodyMaxRunes:  1600,
		},
	}
}

func staticLoader(res *recipients.Result) LoadFunc {
	return func(string) (*recipients.Result, error) { return res, nil }
}

func threeRecipients() *recipients.Result {
	return &recipients.Result{
		Valid: []models.Recipient{
			{Number: "+5511999999991", Line: 1},
			{Number: "+5511999999992", Line: 2},
			{Number: "+5511999999993", Line: 4},
		},
		Invalid: []models.InvalidEntry{{Line: 3, Raw: "bogus"}},
	}
}

// fakeDispatcher records calls and verifies no two sends overlap.
type fakeDispatcher struct {
	mu       sync.Mutex
	inFlight bool
	overlap  bool
	sent     []string
	outcomes []models.SendOutcome
}

func (f *fakeDispatcher) Send(_ context.Context, recipient, _ string) models.SendOutcome {
	f.mu.Lock()
	if f.inFlight {
		f.overlap = true
	}
	f.inFlight = true
	idx := len(f.sent)
	f.sent = append(f.sent, recipient)
	f.mu.Unlock()

	out := models.SendOutcome{Success: true, Message: "Message sent successfully", SID: "SM1"}
	if idx < len(f.outcomes) {
		out = f.outcomes[idx]
	}

	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
	return out
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, d Dispatcher, input string, load LoadFunc) (*Orchestrator, *bytes.Buffer, *[]time.Duration) {
	t.Helper()

	var out bytes.Buffer
	var sleeps []time.Duration
	o, err := New(cfg, d, strings.NewReader(input), console.NewPrinter(&out), zerolog.Nop(),
		WithLoader(load),
		WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	require.NoError(t, err)
	return o, &out, &sleeps
}

func TestRunSendsAllInOrder(t *testing.T) {
	d := &fakeDispatcher{outcomes: []models.SendOutcome{
		{Success: true, Message: "Message sent successfully", SID: "SM001"},
		{Message: "Twilio Error: bad number"},
		{Success: true, Message: "Message sent successfully", SID: "SM003"},
	}}

	o, out, sleeps := newTestOrchestrator(t, testConfig(), d, "hello world\ny\n", staticLoader(threeRecipients()))

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, StateReported, o.State())
	assert.Equal(t, []string{"+5511999999991", "+5511999999992", "+5511999999993"}, d.sent)
	assert.False(t, d.overlap, "sends must be strictly sequential")

	report := o.Report()
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, report.Total, report.Sent+report.Failed)

	// A pause after every send, the last one included.
	assert.Len(t, *sleeps, 3*testConfig().Sending.PauseTicks)

	text := out.String()
	assert.Contains(t, text, "Invalid number on line 3: bogus")
	assert.Contains(t, text, "Sending to +5511999999991")
	assert.Contains(t, text, "SID: SM001")
	assert.Contains(t, text, "Twilio Error: bad number")
	assert.Contains(t, text, "Possible reasons for failures:")
}

func TestRunAbortsOnEmptyValidSet(t *testing.T) {
	d := &fakeDispatcher{}
	empty := &recipients.Result{Invalid: []models.InvalidEntry{{Line: 1, Raw: "junk"}}}

	o, out, _ := newTestOrchestrator(t, testConfig(), d, "never read\ny\n", staticLoader(empty))

	err := o.Run(context.Background())

	var startup *models.StartupError
	require.True(t, errors.As(err, &startup), "expected StartupError, got %v", err)
	assert.Equal(t, StateAborted, o.State())
	assert.Empty(t, d.sent, "no network call may happen")
	assert.NotContains(t, out.String(), "Message Configuration", "must abort before prompting")
}

func TestRunLoaderFailurePropagates(t *testing.T) {
	d := &fakeDispatcher{}
	failing := func(string) (*recipients.Result, error) {
		return nil, models.NewStartupError("numbers.txt not found", "create it")
	}

	o, _, _ := newTestOrchestrator(t, testConfig(), d, "", failing)

	err := o.Run(context.Background())
	var startup *models.StartupError
	require.True(t, errors.As(err, &startup))
	assert.Equal(t, StateAborted, o.State())
	assert.Empty(t, d.sent)
}

func TestRunUserDeclinesConfirmation(t *testing.T) {
	d := &fakeDispatcher{}

	o, out, _ := newTestOrchestrator(t, testConfig(), d, "hello\nn\n", staticLoader(threeRecipients()))

	require.NoError(t, o.Run(context.Background()), "decline is a clean exit, not an error")
	assert.Equal(t, StateAborted, o.State())
	assert.Empty(t, d.sent)
	assert.Contains(t, out.String(), "Operation cancelled by user.")
}

func TestRunRepromptsUntilMessageNonEmpty(t *testing.T) {
	d := &fakeDispatcher{}

	o, out, _ := newTestOrchestrator(t, testConfig(), d, "\n\nfinally\ny\n", staticLoader(threeRecipients()))

	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, StateReported, o.State())
	assert.Len(t, d.sent, 3)
	assert.Contains(t, out.String(), "Message cannot be empty.")
}

func TestRunClosedInputCancels(t *testing.T) {
	d := &fakeDispatcher{}

	o, _, _ := newTestOrchestrator(t, testConfig(), d, "", staticLoader(threeRecipients()))

	require.NoError(t, o.Run(context.Background()))
	assert.Equal(t, StateAborted, o.State())
	assert.Empty(t, d.sent)
}

// End to end through the real dispatcher and the scripted mock provider.
func TestRunWithMockProvider(t *testing.T) {
	provider := smsprovider.NewMockProvider(zerolog.Nop(), smsprovider.WithScript(
		smsprovider.ScenarioSuccess,
		smsprovider.ScenarioRejected,
		smsprovider.ScenarioGarbage,
	))
	dispatcher, err := dispatch.NewDispatcher(provider, "+15550001111", zerolog.Nop())
	require.NoError(t, err)

	o, out, _ := newTestOrchestrator(t, testConfig(), dispatcher, "payload\ny\n", staticLoader(threeRecipients()))

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 3, provider.Calls())
	report := o.Report()
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 2, report.Failed)

	text := out.String()
	assert.Contains(t, text, "Twilio Error: The 'To' number is not a valid phone number.")
	assert.Contains(t, text, "Error parsing response:")
}
