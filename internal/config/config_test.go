package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulomunizdev/sms-sender-pro/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "twilio_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadComplete(t *testing.T) {
	path := writeConfig(t, "ACCOUNT_SID=AC123\nAUTH_TOKEN=secret\nPHONE_NUMBER=+15550001111\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Twilio.AccountSID != "AC123" || cfg.Twilio.AuthToken != "secret" || cfg.Twilio.PhoneNumber != "+15550001111" {
		t.Fatalf("credentials not loaded: %+v", cfg.Twilio)
	}
	if cfg.Sending.NumbersFile != "numbers.txt" {
		t.Fatalf("expected default numbers file, got %q", cfg.Sending.NumbersFile)
	}
	if cfg.Sending.PauseInterval != 1100*time.Millisecond {
		t.Fatalf("expected default pause interval, got %v", cfg.Sending.PauseInterval)
	}
	if cfg.Sending.PauseTicks != 11 {
		t.Fatalf("expected default pause ticks, got %d", cfg.Sending.PauseTicks)
	}
	if cfg.Sending.BodyMaxRunes != 1600 {
		t.Fatalf("expected default body limit, got %d", cfg.Sending.BodyMaxRunes)
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	path := writeConfig(t, "ACCOUNT_SID=AC123\nAUTH_TOKEN=secret\nPHONE_NUMBER=+15550001111\nSOMETHING_ELSE=42\n")

	if _, err := Load(path); err != nil {
		t.Fatalf("unknown keys must be ignored, got error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))

	var startup *models.StartupError
	if !errors.As(err, &startup) {
		t.Fatalf("expected StartupError for missing file, got %v", err)
	}
	if startup.Remediation == "" {
		t.Fatalf("expected remediation text on missing config error")
	}
}

func TestLoadMissingCredential(t *testing.T) {
	path := writeConfig(t, "ACCOUNT_SID=AC123\nAUTH_TOKEN=\nPHONE_NUMBER=+15550001111\n")

	_, err := Load(path)
	var startup *models.StartupError
	if !errors.As(err, &startup) {
		t.Fatalf("expected StartupError for empty credential, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "ACCOUNT_SID=AC123\nAUTH_TOKEN=secret\nPHONE_NUMBER=+15550001111\n")

	t.Setenv("TWILIO_ACCOUNT_SID", "AC999")
	t.Setenv("SEND_PAUSE_MS", "250")
	t.Setenv("NUMBERS_FILE", "other.txt")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Twilio.AccountSID != "AC999" {
		t.Fatalf("environment must win over file, got %q", cfg.Twilio.AccountSID)
	}
	if cfg.Sending.PauseInterval != 250*time.Millisecond {
		t.Fatalf("expected overridden pause interval, got %v", cfg.Sending.PauseInterval)
	}
	if cfg.Sending.NumbersFile != "other.txt" {
		t.Fatalf("expected overridden numbers file, got %q", cfg.Sending.NumbersFile)
	}
}

func TestLoadBadInteger(t *testing.T) {
	path := writeConfig(t, "ACCOUNT_SID=AC123\nAUTH_TOKEN=secret\nPHONE_NUMBER=+15550001111\nSEND_PAUSE_MS=soon\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for non-integer SEND_PAUSE_MS")
	}
}
