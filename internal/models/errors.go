package models

// StartupError marks a fatal condition detected before any message is sent:
// missing or invalid configuration, a missing numbers file, or an empty
// valid-recipient set. The top-level run function maps it to a non-zero exit
// status; it never occurs inside the per-recipient loop, where failures are
// captured as SendOutcome data instead.
type StartupError struct {
	Msg         string
	Remediation string
}

func (e *StartupError) Error() string { return e.Msg }

// NewStartupError builds a StartupError with an optional remediation hint
// shown to the user below the error line.
func NewStartupError(msg, remediation string) *StartupError {
	return &StartupError{Msg: msg, Remediation: remediation}
}
