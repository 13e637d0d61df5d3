package intake

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Shape-only checks: 2024-13-40 passes the date pattern, there is no calendar validation.
var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const (
	reasonInvalidDate = "invalid date format."
	reasonInvalidTime = "invalid time format."
)

// Verdict is the result of validating one answer.
type Verdict struct {
	Accepted bool
	Reason   string
}

// Validate checks a raw answer against the field's constraints. The first failing rule wins.
func Validate(f Field, raw string) Verdict {
	if f.MinLength > 0 && utf8.RuneCountInString(strings.TrimSpace(raw)) < f.MinLength {
		return reject(fmt.Sprintf("too short, minimum %d characters.", f.MinLength))
	}
	if f.MaxLength > 0 && utf8.RuneCountInString(raw) > f.MaxLength {
		return reject(fmt.Sprintf("too long, maximum %d characters.", f.MaxLength))
	}
	switch f.Format {
	case FormatDate:
		if !datePattern.MatchString(raw) {
			return reject(reasonInvalidDate)
		}
	case FormatTime:
		if !timePattern.MatchString(raw) {
			return reject(reasonInvalidTime)
		}
	}
	return Verdict{Accepted: true}
}

func reject(reason string) Verdict {
	return Verdict{Reason: reason}
}
