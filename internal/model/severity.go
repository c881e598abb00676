package model

import (
	"encoding/json"
	"fmt"
)

// Severity ranks how important a deviation is.
// The zero value is SeverityNone.
type Severity int

// Severity levels in ascending order.
const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityLow
	SeverityMedium
	SeverityHigh
)

var severityNames = [...]string{
	SeverityNone:   "no-severity",
	SeverityInfo:   "info",
	SeverityLow:    "low",
	SeverityMedium: "medium",
	SeverityHigh:   "high",
}

// String returns the wire name of the severity.
func (s Severity) String() string {
	if s < SeverityNone || s > SeverityHigh {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// AtLeast reports whether s is equal to or more severe than other.
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

// ParseSeverity converts a wire name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return SeverityNone, fmt.Errorf("unknown severity %q", name)
}

// MaxSeverity returns the highest of the given severities, SeverityNone for none.
func MaxSeverity(severities ...Severity) Severity {
	highest := SeverityNone
	for _, s := range severities {
		if s > highest {
			highest = s
		}
	}
	return highest
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
