// Package diag defines the structured diagnostic type shared by the
// normalization, lowering, and table-shape validation stages.
//
// Every failure is a distinct kind with a stable code, so that diagnostics
// emitted here can be cross-referenced 1:1 against the downstream checker's
// report during debugging. Stages collect all diagnostics they find instead
// of failing fast; one malformed process must not hide errors in another.
package diag

import "fmt"

// Severity levels for diagnostics.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind identifies the diagnostic category.
type Kind string

const (
	// Normalization kinds.
	KindReference     Kind = "reference"
	KindDuplicateName Kind = "duplicate_name"

	// Lowering kinds.
	KindConflictingBound Kind = "conflicting_bound"
	KindInterpolation    Kind = "interpolation"
	KindFractionSum      Kind = "fraction_sum"

	// Table-shape kinds.
	KindNonCanonicalColumn     Kind = "non_canonical_column"
	KindWidePivot              Kind = "wide_pivot"
	KindYearColumn             Kind = "year_column"
	KindDuplicateKey           Kind = "duplicate_key"
	KindNonNumericParameter    Kind = "non_numeric_parameter"
	KindIncompleteYearCoverage Kind = "incomplete_year_coverage"
)

// Diagnostic codes (E100-E199).
const (
	// Normalization errors (E101-E109)
	CodeReference     = "E101" // entity refers to an undefined name
	CodeDuplicateName = "E102" // two entities of the same kind share a name

	// Lowering errors (E110-E119)
	CodeConflictingBound = "E110" // fixed and upper/lower on the same bound
	CodeInterpolation    = "E111" // sparse series malformed or unexpandable
	CodeFractionSum      = "E112" // leaf fractions do not sum to 1.0

	// Table-shape errors (E120-E129)
	CodeNonCanonicalColumn     = "E120" // column name not a lowercase identifier
	CodeWidePivot              = "E121" // year or region used as a column name
	CodeYearColumn             = "E122" // year column missing, non-integer, or out of range
	CodeDuplicateKey           = "E123" // duplicate rows for the same key combination
	CodeNonNumericParameter    = "E124" // non-numeric value in a parameter column
	CodeIncompleteYearCoverage = "E125" // model year missing for a key combination
)

// Diagnostic is a single structured finding. Entity names the offending
// entity or table, Field the offending attribute or column when known.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	Code     string   `json:"code"`
	Entity   string   `json:"entity,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	if d.Entity != "" && d.Field != "" {
		return fmt.Sprintf("[%s] %s %s.%s: %s", d.Code, d.Severity, d.Entity, d.Field, d.Message)
	}
	if d.Entity != "" {
		return fmt.Sprintf("[%s] %s %s: %s", d.Code, d.Severity, d.Entity, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Severity, d.Message)
}

// Errorf builds an error-severity diagnostic for the given kind and code.
func Errorf(kind Kind, code, entity, field, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Kind:     kind,
		Code:     code,
		Entity:   entity,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warnf builds a warning-severity diagnostic for the given kind and code.
func Warnf(kind Kind, code, entity, field, format string, args ...any) Diagnostic {
	d := Errorf(kind, code, entity, field, format, args...)
	d.Severity = SeverityWarning
	return d
}

// HasFatal reports whether any diagnostic in the list is error severity.
func HasFatal(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
