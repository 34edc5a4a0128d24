package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/paulomunizdev/sms-sender-pro/internal/config"
	"github.com/paulomunizdev/sms-sender-pro/internal/console"
	"github.com/paulomunizdev/sms-sender-pro/internal/dispatch"
	"github.com/paulomunizdev/sms-sender-pro/internal/logger"
	"github.com/paulomunizdev/sms-sender-pro/internal/models"
	"github.com/paulomunizdev/sms-sender-pro/internal/providers/sms"
	"github.com/paulomunizdev/sms-sender-pro/internal/run"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := console.NewPrinter(os.Stdout)
	out.Banner()
	out.Info("Initializing SMS sender...")

	cfg, err := config.Load(config.DefaultConfigFile)
	if err != nil {
		return fatal(out, err)
	}
	out.OK("Configuration loaded successfully")

	log, closeLog, err := buildLogger(cfg)
	if err != nil {
		return fatal(out, err)
	}
	defer closeLog()

	provider, err := sms.NewTwilioProvider(cfg.Twilio,
		log.With().Str("component", "twilio-provider").Logger(),
		sms.WithTwilioBaseURL(cfg.Sending.BaseURL),
		sms.WithTwilioTimeout(cfg.Sending.ProviderTimeout),
	)
	if err != nil {
		return fatal(out, err)
	}

	dispatcher, err := dispatch.NewDispatcher(provider, cfg.Twilio.PhoneNumber,
		log.With().Str("component", "dispatcher").Logger())
	if err != nil {
		return fatal(out, err)
	}

	orch, err := run.New(cfg, dispatcher, os.Stdin, out,
		log.With().Str("component", "orchestrator").Logger())
	if err != nil {
		return fatal(out, err)
	}

	if err := orch.Run(ctx); err != nil {
		return fatal(out, err)
	}

	fmt.Fprintln(out.Writer(), console.Green("\nProgram finished successfully!"))
	return 0
}

// buildLogger routes zerolog to the configured log file so diagnostics stay
// off the interactive console; without one, logs are discarded.
func buildLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	if cfg.App.LogFile == "" {
		nop := zerolog.Nop()
		return nop, func() {}, nil
	}

	f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("open log file: %w", err)
	}

	log, err := logger.New(cfg.App.Env, cfg.App.LogLevel, f)
	if err != nil {
		f.Close()
		return zerolog.Nop(), func() {}, err
	}
	return *log, func() { f.Close() }, nil
}

// fatal renders a startup-fatal error, with remediation when present, and
// yields the non-zero exit status.
func fatal(out *console.Printer, err error) int {
	var startup *models.StartupError
	if errors.As(err, &startup) {
		fmt.Fprintf(os.Stderr, "%s\n", console.Red("\nError: "+startup.Msg))
		if startup.Remediation != "" {
			fmt.Fprintln(os.Stderr, startup.Remediation)
		}
		return 1
	}
	fmt.Fprintf(os.Stderr, "%s\n", console.Red("\nError: "+err.Error()))
	return 1
}
