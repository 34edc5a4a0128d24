package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/paulomunizdev/sms-sender-pro/internal/models"
)

// DefaultConfigFile is the credentials file read when no override is set.
const DefaultConfigFile = "twilio_config.txt"

const configFormatHint = "Please create twilio_config.txt with the following format:\n" +
	"ACCOUNT_SID=your_account_sid\n" +
	"AUTH_TOKEN=your_auth_token\n" +
	"PHONE_NUMBER=your_phone_number"

// Config captures all runtime configuration for the sender. Credentials come
// from the flat KEY=value file; everything else has defaults and can be
// overridden through the environment, mirroring the file keys.
type Config struct {
	App     AppConfig
	Twilio  models.Credentials
	Sending SendingConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	LogLevel string
	// LogFile receives zerolog output so diagnostics never interleave with
	// the interactive console. Empty disables file logging.
	LogFile string
}

// SendingConfig groups the knobs of the dispatch loop.
type SendingConfig struct {
	NumbersFile string
	// PauseInterval is the fixed delay applied after every send, used for
	// provider-side rate limiting.
	PauseInterval time.Duration
	// PauseTicks is how many discrete countdown ticks the pause renders.
	PauseTicks int
	// BodyMaxRunes is displayed at the message prompt; it is not enforced.
	BodyMaxRunes int
	// ProviderTimeout bounds each HTTP round trip to Twilio.
	ProviderTimeout time.Duration
	// BaseURL overrides the Twilio API root. Tests point it at a local server.
	BaseURL string
}

// Load reads the credentials file at path (DefaultConfigFile when empty),
// applies environment overrides and defaults, and validates the result.
// A missing file or an incomplete set of credentials is returned as a
// StartupError carrying remediation text.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigFile
	}

	fileVals, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewStartupError(
				fmt.Sprintf("%s not found", path),
				configFormatHint,
			)
		}
		return nil, models.NewStartupError(
			fmt.Sprintf("cannot read %s: %v", path, err),
			configFormatHint,
		)
	}

	ldr := &loader{file: fileVals}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)
	cfg.App.LogFile = ldr.getString("LOG_FILE", "", false)

	cfg.Twilio.AccountSID = ldr.getCredential("TWILIO_ACCOUNT_SID", "ACCOUNT_SID")
	cfg.Twilio.AuthToken = ldr.getCredential("TWILIO_AUTH_TOKEN", "AUTH_TOKEN")
	cfg.Twilio.PhoneNumber = ldr.getCredential("TWILIO_PHONE_NUMBER", "PHONE_NUMBER")

	cfg.Sending.NumbersFile = ldr.getString("NUMBERS_FILE", "numbers.txt", false)
	cfg.Sending.PauseInterval = time.Duration(ldr.getInt("SEND_PAUSE_MS", 1100, false)) * time.Millisecond
	cfg.Sending.PauseTicks = ldr.getInt("SEND_PAUSE_TICKS", 11, false)
	cfg.Sending.BodyMaxRunes = ldr.getInt("SMS_BODY_MAX", 1600, false)
	cfg.Sending.ProviderTimeout = time.Duration(ldr.getInt("PROVIDER_TIMEOUT_SECONDS", 30, false)) * time.Second
	cfg.Sending.BaseURL = ldr.getString("TWILIO_BASE_URL", "", false)

	if err := ldr.validate(); err != nil {
		return nil, models.NewStartupError(
			fmt.Sprintf("invalid configuration in %s: %v", path, err),
			configFormatHint,
		)
	}

	if err := validator.New().Struct(cfg.Twilio); err != nil {
		return nil, models.NewStartupError(
			fmt.Sprintf("invalid configuration in %s: %v", path, err),
			configFormatHint,
		)
	}

	return cfg, nil
}

// loader resolves keys against the environment first and the credentials
// file second, accumulating errors so the user sees every problem at once.
type loader struct {
	file map[string]string
	errs []string
}

func (l *loader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(l.errs, "; "))
}

// getCredential prefers the environment variable and falls back to the file
// key. An empty result is recorded as a missing credential.
func (l *loader) getCredential(envKey, fileKey string) string {
	if val, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	if val, ok := l.file[fileKey]; ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	l.addError(fmt.Sprintf("%s is required", fileKey))
	return ""
}

func (l *loader) getString(key, def string, required bool) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		val, ok = l.file[key]
	}
	if ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *loader) getInt(key string, def int, required bool) int {
	raw := l.getString(key, "", required)
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *loader) addError(err string) {
	l.errs = append(l.errs, err)
}
