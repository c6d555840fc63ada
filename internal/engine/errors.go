package engine

import (
	"fmt"
	"strings"

	"vcreport/internal/vcast"
)

// The pipeline error taxonomy. InputValidationError, EnumerationError,
// NameCollisionError, and AssemblyError are fatal to the run.
// ReportGenerationError is recorded per report kind and never aborts the
// remaining kinds. OrganizationError is fatal only for the artifact it names.

// InputValidationError reports a precondition failure detected before any
// tool invocation: empty module name, missing environment file, missing
// binary.
type InputValidationError struct {
	Reason string
	Err    error
}

func (e *InputValidationError) Error() string {
	return "input validation: " + e.Reason
}

func (e *InputValidationError) Unwrap() error { return e.Err }

// EnumerationError reports that function discovery failed: the listing
// invocation exited non-zero, its output was unusable, or it yielded zero
// functions.
type EnumerationError struct {
	Reason string
	Err    error
}

func (e *EnumerationError) Error() string {
	return "function enumeration: " + e.Reason
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// NameCollisionError reports two distinct function names mapping to the same
// script file name after sanitization.
type NameCollisionError struct {
	FileName string
	First    string
	Second   string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("script name collision: functions %q and %q both map to %q",
		e.First, e.Second, e.FileName)
}

// AssemblyError reports a failed artifact or master-script write. Written
// lists the paths that landed before the failure; they are left on disk for
// diagnosis but the assembly as a whole is invalid.
type AssemblyError struct {
	Path    string
	Written []string
	Err     error
}

func (e *AssemblyError) Error() string {
	msg := fmt.Sprintf("script assembly: write %s: %v", e.Path, e.Err)
	if len(e.Written) > 0 {
		msg += fmt.Sprintf(" (%d artifact(s) written before failure: %s)",
			len(e.Written), strings.Join(e.Written, ", "))
	}
	return msg
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// ReportGenerationError reports one failed report invocation. It is recorded
// on the kind's outcome, not propagated.
type ReportGenerationError struct {
	Kind     vcast.ReportKind
	ExitCode int
	Reason   string
	Err      error
}

func (e *ReportGenerationError) Error() string {
	return fmt.Sprintf("%s report generation: %s", e.Kind, e.Reason)
}

func (e *ReportGenerationError) Unwrap() error { return e.Err }

// OrganizationError reports a relocation conflict or failure for a single
// artifact. Other artifacts still relocate.
type OrganizationError struct {
	Source string
	Dest   string
	Reason string
	Err    error
}

func (e *OrganizationError) Error() string {
	return fmt.Sprintf("artifact organization: %s -> %s: %s", e.Source, e.Dest, e.Reason)
}

func (e *OrganizationError) Unwrap() error { return e.Err }
