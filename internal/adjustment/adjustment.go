// Package adjustment models one Error Budget Adjustment intent and
// validates every user-supplied field before it is accepted.
//
// Validators are pure functions (raw string in, error out) so the prompt
// loop stays a thin driver and every rule is unit-testable without a
// terminal.
package adjustment

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Kind distinguishes a one-off window from a repeating schedule.
type Kind int

const (
	OneTime Kind = iota
	Recurring
)

func (k Kind) String() string {
	if k == Recurring {
		return "recurring"
	}
	return "one-time"
}

// Spec is one adjustment intent, independent of which SLOs it targets.
// Start is kept as the validated raw string so the rendered document
// reproduces the user's timestamp byte-for-byte.
type Spec struct {
	Kind        Kind
	Start       string
	Duration    string
	RRule       string
	DisplayName string
	Description string
}

// ValidationError reports a field contract violation. Recoverable:
// interactive callers re-prompt the same field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// frequencies is the allowed set for the RRULE FREQ declaration.
var frequencies = map[string]bool{
	"DAILY":   true,
	"WEEKLY":  true,
	"MONTHLY": true,
	"YEARLY":  true,
}

// ValidateStart checks an event start timestamp. It must be RFC 3339
// with an explicit zone; recurring adjustments must start strictly in
// the future relative to now. One-time adjustments may start in the past.
func ValidateStart(raw string, kind Kind, now time.Time) (string, error) {
	trimmed := strings.TrimSpace(raw)
	ts, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return "", &ValidationError{
			Field:  "firstEventStart",
			Reason: "must be an ISO-8601 timestamp with a UTC offset, e.g. 2026-09-01T02:00:00Z",
		}
	}
	if kind == Recurring && !ts.After(now) {
		return "", &ValidationError{
			Field:  "firstEventStart",
			Reason: "a recurring adjustment must start in the future",
		}
	}
	return trimmed, nil
}

// ValidateDuration checks the compact duration format: only digits and
// the unit letters h/m/s, at least one unit letter, and a leading digit.
func ValidateDuration(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	reject := func(reason string) (string, error) {
		return "", &ValidationError{Field: "duration", Reason: reason}
	}
	if trimmed == "" {
		return reject("cannot be empty")
	}
	if trimmed[0] < '0' || trimmed[0] > '9' {
		return reject("must start with a digit, e.g. 1h30m")
	}
	hasUnit := false
	for _, c := range trimmed {
		switch {
		case c >= '0' && c <= '9':
		case c == 'h' || c == 'm' || c == 's':
			hasUnit = true
		default:
			return reject(fmt.Sprintf("unexpected character %q; use digits and h/m/s only", c))
		}
	}
	if !hasUnit {
		return reject("needs at least one unit letter (h, m or s)")
	}
	return trimmed, nil
}

// ValidateRRule checks an iCalendar recurrence rule: it must declare its
// frequency first, the frequency must be daily or coarser, and the whole
// rule must parse as RRULE syntax.
func ValidateRRule(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Field: "rrule", Reason: "cannot be empty for a recurring adjustment"}
	}
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "FREQ=") {
		return "", &ValidationError{Field: "rrule", Reason: "must begin with FREQ=, e.g. FREQ=WEEKLY;BYDAY=MO"}
	}
	freq := strings.SplitN(upper[len("FREQ="):], ";", 2)[0]
	if !frequencies[freq] {
		return "", &ValidationError{
			Field:  "rrule",
			Reason: fmt.Sprintf("frequency %s not allowed; use DAILY, WEEKLY, MONTHLY or YEARLY", freq),
		}
	}
	if _, err := rrule.StrToRRule(upper); err != nil {
		return "", &ValidationError{Field: "rrule", Reason: fmt.Sprintf("not a valid recurrence rule: %v", err)}
	}
	return trimmed, nil
}

// ValidateDisplayName checks the adjustment's display name: non-empty,
// no '#' (reserved for YAML comments in the adjustment format), and it
// must reduce to a non-empty slug.
func ValidateDisplayName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Field: "displayName", Reason: "cannot be empty"}
	}
	if strings.Contains(trimmed, "#") {
		return "", &ValidationError{Field: "displayName", Reason: "'#' characters are not allowed"}
	}
	if Slug(trimmed) == "" {
		return "", &ValidationError{Field: "displayName", Reason: "must contain at least one letter or digit"}
	}
	return trimmed, nil
}

// Slug derives a filesystem- and YAML-safe name from a display name:
// lowercase, every run of non-alphanumerics collapsed to a single
// hyphen, no leading or trailing hyphen. Idempotent.
func Slug(displayName string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, c := range strings.ToLower(displayName) {
		alnum := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Validate checks a fully-assembled Spec, for callers that collect all
// fields up front (the non-interactive path). now anchors the
// future-start rule for recurring adjustments.
func (s *Spec) Validate(now time.Time) error {
	if _, err := ValidateDisplayName(s.DisplayName); err != nil {
		return err
	}
	if _, err := ValidateStart(s.Start, s.Kind, now); err != nil {
		return err
	}
	if _, err := ValidateDuration(s.Duration); err != nil {
		return err
	}
	switch s.Kind {
	case Recurring:
		if _, err := ValidateRRule(s.RRule); err != nil {
			return err
		}
	case OneTime:
		if s.RRule != "" {
			return &ValidationError{Field: "rrule", Reason: "must be empty for a one-time adjustment"}
		}
	}
	return nil
}
