package triage

import "github.com/edflow/edflow/internal/platform/apperr"

// Severity is a triage traffic-light color. The stored form is the
// English name; Spanish input is accepted for compatibility with the
// intake forms.
type Severity string

const (
	SeverityGreen  Severity = "GREEN"
	SeverityYellow Severity = "YELLOW"
	SeverityRed    Severity = "RED"
)

// ParseSeverity normalizes a color name. Anything unrecognized is a
// validation error; a bad value must never be quietly downgraded.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "GREEN", "green", "VERDE", "verde":
		return SeverityGreen, nil
	case "YELLOW", "yellow", "AMARILLO", "amarillo":
		return SeverityYellow, nil
	case "RED", "red", "ROJO", "rojo":
		return SeverityRed, nil
	}
	return "", apperr.New(apperr.Validation, "unrecognized triage color %q", s)
}

// Rank orders severities for comparison and queue sorting.
func (s Severity) Rank() int {
	switch s {
	case SeverityRed:
		return 3
	case SeverityYellow:
		return 2
	default:
		return 1
	}
}

// Worst returns the most urgent of the three assessment axes. The
// visit classification is always the worst axis.
func Worst(a, b, c Severity) Severity {
	worst := a
	if b.Rank() > worst.Rank() {
		worst = b
	}
	if c.Rank() > worst.Rank() {
		worst = c
	}
	return worst
}
