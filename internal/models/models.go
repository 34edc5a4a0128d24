package models

// Credentials holds the three Twilio values every run requires. All fields
// must be non-empty; config.Load enforces that before a Credentials value is
// ever constructed.
type Credentials struct {
	AccountSID  string `validate:"required"`
	AuthToken   string `validate:"required"`
	PhoneNumber string `validate:"required"`
}

// Recipient is a phone number that survived normalization and validation.
// Number is always "+" followed by digits; Line is the 1-based position in
// the source file, kept so the send loop preserves file order and reports
// can point back at the input.
type Recipient struct {
	Number string
	Line   int
}

// InvalidEntry records a line that failed validation. Raw is the literal
// text as it appeared in the file, before normalization.
type InvalidEntry struct {
	Line int
	Raw  string
}

// SendOutcome is the result of exactly one dispatch attempt. Failures are
// represented here as data, never as errors: a failed send is final for that
// recipient within the run.
type SendOutcome struct {
	Success bool
	Message string
	SID     string
}

// Report aggregates per-recipient outcomes for the final tally.
type Report struct {
	Total  int
	Sent   int
	Failed int
}
