package recipients

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulomunizdev/sms-sender-pro/internal/models"
	"github.com/paulomunizdev/sms-sender-pro/internal/util"
)

const numbersFormatHint = "Please create the numbers file with one phone number per line.\n" +
	"Format: [country_code][number] (Example: 5511999999999)"

// Result is the outcome of one load pass over the recipient list. Valid
// preserves the file's original relative order; Invalid carries the lines
// that were excluded, for inline reporting. Neither is fatal by itself.
type Result struct {
	Valid   []models.Recipient
	Invalid []models.InvalidEntry
}

// Parse classifies every line of r: blank lines are skipped entirely, lines
// that normalize and validate become recipients, everything else is recorded
// as invalid with its 1-based line number and literal text.
func Parse(r io.Reader) (*Result, error) {
	res := &Result{}
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		normalized := util.NormalizePhone(raw)
		if util.ValidatePhone(normalized) {
			res.Valid = append(res.Valid, models.Recipient{Number: normalized, Line: line})
		} else {
			res.Invalid = append(res.Invalid, models.InvalidEntry{Line: line, Raw: raw})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("recipients: scan: %w", err)
	}

	return res, nil
}

// LoadFile reads the recipient list at path. A missing file is a startup
// error with remediation text; read errors past that point are wrapped the
// same way since no partial work is useful without the full list.
func LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewStartupError(
				fmt.Sprintf("%s not found", path),
				numbersFormatHint,
			)
		}
		return nil, models.NewStartupError(
			fmt.Sprintf("cannot read %s: %v", path, err),
			numbersFormatHint,
		)
	}
	defer f.Close()

	res, err := Parse(f)
	if err != nil {
		return nil, models.NewStartupError(
			fmt.Sprintf("cannot read %s: %v", path, err),
			numbersFormatHint,
		)
	}
	return res, nil
}
