// Package diag collects and renders the two error classes the lowering
// pass produces: structural precondition failures, which abort the whole
// driver call, and soft pass-through warnings for unhandled construct
// variants, which do not.
package diag

import (
	"firlower/internal/source"

	"github.com/pkg/errors"
)

// Severity is the diagnostic's level.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported condition, optionally tied to a source
// location.
type Diagnostic struct {
	Severity Severity
	Message  string
	Location *source.Location
}

// StructuralError is raised (via panic, see internal/lower's driver) when
// the lowering core finds its own preconditions violated — a label the
// registry never saw, an EXIT/CYCLE with no enclosing construct, a second
// DEFAULT arm. It wraps github.com/pkg/errors.WithStack so the recovering
// boundary can log exactly which lowering call produced it.
type StructuralError struct {
	cause error
	Loc   *source.Location
}

func (e *StructuralError) Error() string {
	return e.cause.Error()
}

func (e *StructuralError) Unwrap() error {
	return e.cause
}

// NewStructuralError builds a StructuralError carrying a stack trace
// rooted at the call site so the recovering boundary can report exactly
// where the failing lowering call happened.
func NewStructuralError(loc *source.Location, format string, args ...interface{}) *StructuralError {
	return &StructuralError{
		cause: errors.WithStack(errors.Errorf(format, args...)),
		Loc:   loc,
	}
}
