package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Style is a stateless text decorator. Each value maps plain text to styled
// text and keeps no process-wide state beyond fatih/color's tty detection.
type Style func(text string) string

// asStyle narrows fatih/color's variadic SprintFunc to the Style signature.
func asStyle(f func(a ...interface{}) string) Style {
	return func(text string) string { return f(text) }
}

var (
	Cyan    = asStyle(color.New(color.FgCyan).SprintFunc())
	Green   = asStyle(color.New(color.FgGreen).SprintFunc())
	Red     = asStyle(color.New(color.FgRed).SprintFunc())
	Yellow  = asStyle(color.New(color.FgYellow).SprintFunc())
	Heading = asStyle(color.New(color.FgCyan, color.Bold).SprintFunc())
)

const progressBarWidth = 30

// Printer renders all user-facing output of a run to a single writer. It is
// purely presentational: nothing here is part of the data contract.
type Printer struct {
	w io.Writer
}

// NewPrinter wraps the given writer, usually os.Stdout.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Banner prints the application header.
func (p *Printer) Banner() {
	fmt.Fprintln(p.w, Heading("\n"+
		"╔════════════════════════════════════════╗\n"+
		"║          Twilio SMS Sender Pro         ║\n"+
		"╚════════════════════════════════════════╝"))
	fmt.Fprintln(p.w)
}

// Section prints a cyan "=== name ===" heading.
func (p *Printer) Section(name string) {
	fmt.Fprintf(p.w, "%s\n", Heading("\n=== "+name+" ==="))
}

// Info prints a plain informational line in cyan.
func (p *Printer) Info(text string) {
	fmt.Fprintln(p.w, Cyan(text))
}

// OK prints a green check mark followed by text.
func (p *Printer) OK(text string) {
	fmt.Fprintf(p.w, "%s %s\n", Green("✓"), text)
}

// Bad prints a red cross followed by text.
func (p *Printer) Bad(text string) {
	fmt.Fprintf(p.w, "%s %s\n", Red("✗"), text)
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(text string) {
	fmt.Fprintln(p.w, Yellow(text))
}

// Progress renders the load-phase progress bar in place.
func (p *Printer) Progress(current, total int) {
	if total <= 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	pos := progressBarWidth * current / total

	var bar strings.Builder
	bar.WriteByte('[')
	for i := 0; i < progressBarWidth; i++ {
		if i < pos {
			bar.WriteString(Green("█"))
		} else {
			bar.WriteByte(' ')
		}
	}
	bar.WriteByte(']')
	fmt.Fprintf(p.w, "%s %.1f%%\r", bar.String(), pct)
}

// ClearLine blanks the current terminal line.
func (p *Printer) ClearLine() {
	fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", 80))
}

// SendingLine prints the per-recipient live status prefix, without newline;
// the outcome mark completes it.
func (p *Printer) SendingLine(current, total int, number string) {
	fmt.Fprintf(p.w, "[%d/%d] Sending to %s... ", current, total, number)
}

// SendSuccess completes a sending line for a delivered message.
func (p *Printer) SendSuccess(sid string) {
	fmt.Fprintf(p.w, "%s (SID: %s)\n", Green("✓ SUCCESS"), sid)
}

// SendFailure completes a sending line for a failed message.
func (p *Printer) SendFailure(message string) {
	fmt.Fprintf(p.w, "%s %s\n", Red("✗ FAILED:"), message)
}

// RateLimitTick renders the pacing countdown; remaining shrinks to zero.
func (p *Printer) RateLimitTick(remaining int) {
	fmt.Fprintf(p.w, "\rWaiting for rate limit... %s", strings.Repeat(".", remaining))
}

// Tally prints the final counters.
func (p *Printer) Tally(total, sent, failed int) {
	p.Section("Final Report")
	fmt.Fprintf(p.w, "Total messages: %s\n", Yellow(fmt.Sprintf("%d", total)))
	fmt.Fprintf(p.w, "%s\n", Green(fmt.Sprintf("✓ Successful: %d", sent)))
	fmt.Fprintf(p.w, "%s\n", Red(fmt.Sprintf("✗ Failed: %d", failed)))
}

// FailureHints prints the fixed list of likely failure causes shown instead
// of per-failure diagnosis.
func (p *Printer) FailureHints() {
	p.Warn("\nPossible reasons for failures:")
	fmt.Fprintln(p.w, "- Invalid Twilio credentials")
	fmt.Fprintln(p.w, "- Phone number not properly configured")
	fmt.Fprintln(p.w, "- Network connection issues")
	fmt.Fprintln(p.w, "- Insufficient Twilio balance")
	fmt.Fprintln(p.w, "- Message content restrictions")
	p.Info("Check the Twilio dashboard for detailed message status.")
}

// Writer exposes the underlying writer for free-form lines.
func (p *Printer) Writer() io.Writer { return p.w }
