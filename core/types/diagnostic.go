package types

import "fmt"

// DiagnosticKind classifies a diagnostic event
type DiagnosticKind string

const (
	// DiagUnknownCategory - a set lists a category no component has
	DiagUnknownCategory DiagnosticKind = "unknown_category"
	// DiagUnknownComponent - a set lists a component that is not in the catalog
	DiagUnknownComponent DiagnosticKind = "unknown_component"
	// DiagExcluded - a selected component failed a validity rule
	DiagExcluded DiagnosticKind = "excluded"
	// DiagInsufficientSamples - too few components remain for a reliable fit
	DiagInsufficientSamples DiagnosticKind = "insufficient_samples"
	// DiagIdentityError - a component group could not be reconciled
	DiagIdentityError DiagnosticKind = "identity_error"
)

// Severity indicates diagnostic impact level
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns string representation
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity name
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Diagnostic is a recoverable event reported alongside a result
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`
	// Subject is the component, category, or set the event is about
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// String returns a one-line rendering
func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Subject, d.Message)
}

// Diagnostics is an ordered list of diagnostic events
type Diagnostics []Diagnostic

// Add appends a diagnostic
func (d *Diagnostics) Add(kind DiagnosticKind, severity Severity, subject, format string, args ...any) {
	*d = append(*d, Diagnostic{
		Kind:     kind,
		Severity: severity,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	})
}

// OfKind returns the diagnostics of one kind
func (d Diagnostics) OfKind(kind DiagnosticKind) Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Kind == kind {
			out = append(out, diag)
		}
	}
	return out
}

// HasWarnings reports whether any diagnostic is a warning or worse
func (d Diagnostics) HasWarnings() bool {
	for _, diag := range d {
		if diag.Severity >= SeverityWarning {
			return true
		}
	}
	return false
}
