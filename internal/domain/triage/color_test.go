package triage

import (
	"testing"

	"github.com/edflow/edflow/internal/platform/apperr"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"GREEN", SeverityGreen},
		{"green", SeverityGreen},
		{"VERDE", SeverityGreen},
		{"YELLOW", SeverityYellow},
		{"AMARILLO", SeverityYellow},
		{"RED", SeverityRed},
		{"rojo", SeverityRed},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if err != nil {
			t.Errorf("ParseSeverity(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSeverityRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "BLUE", "GREENISH", "VERDE "} {
		if _, err := ParseSeverity(in); !apperr.IsKind(err, apperr.Validation) {
			t.Errorf("ParseSeverity(%q): expected validation error, got %v", in, err)
		}
	}
}

func TestWorst(t *testing.T) {
	tests := []struct {
		a, b, c Severity
		want    Severity
	}{
		{SeverityGreen, SeverityGreen, SeverityGreen, SeverityGreen},
		{SeverityGreen, SeverityYellow, SeverityGreen, SeverityYellow},
		{SeverityYellow, SeverityGreen, SeverityRed, SeverityRed},
		{SeverityRed, SeverityRed, SeverityRed, SeverityRed},
		{SeverityYellow, SeverityYellow, SeverityGreen, SeverityYellow},
	}
	for _, tt := range tests {
		if got := Worst(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("Worst(%v,%v,%v) = %v, want %v", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

// Worst must not depend on argument order.
func TestWorstSymmetry(t *testing.T) {
	all := []Severity{SeverityGreen, SeverityYellow, SeverityRed}
	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				want := Worst(a, b, c)
				perms := [][3]Severity{
					{a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
				}
				for _, p := range perms {
					if got := Worst(p[0], p[1], p[2]); got != want {
						t.Fatalf("Worst not symmetric: Worst(%v,%v,%v)=%v vs %v", p[0], p[1], p[2], got, want)
					}
				}
			}
		}
	}
}
