// Package vcast is the boundary to the external test-execution tool. The tool
// is driven purely through process invocation with textual output; its
// argument syntax and output file conventions are a versioned contract carried
// by InvocationSpec so a grammar change in a future tool release is a config
// edit, not a code change.
package vcast

import "context"

// ReportKind names one of the three analysis views the tool can produce.
type ReportKind string

const (
	ReportManagement ReportKind = "management"
	ReportExecution  ReportKind = "execution"
	ReportFull       ReportKind = "full"
)

// ReportKinds is the fixed generation order. Downstream consumers rely on it
// being stable, so keep Management first and Full last.
var ReportKinds = []ReportKind{ReportManagement, ReportExecution, ReportFull}

func (k ReportKind) Valid() bool {
	switch k {
	case ReportManagement, ReportExecution, ReportFull:
		return true
	}
	return false
}

// Environment identifies the compiled test environment a session targets.
type Environment struct {
	// Name is the tool-side environment name (upper-cased module name).
	Name string
	// Unit is the module (unit) name as the user supplied it.
	Unit string
	// ProjectDir is the working directory holding <Name>.env; every tool
	// invocation runs with this as its working directory.
	ProjectDir string
}

// Tool abstracts the external binary so the pipeline is testable against a
// fake. The real implementation is CLITool. The tool does not support
// concurrent sessions against one environment; callers must not overlap
// invocations.
type Tool interface {
	// ListFunctions returns the ordered, duplicate-free names of testable
	// functions defined in the environment. Sentinel pseudo-subprograms
	// (<<COMPOUND>>, <<INIT>>) are excluded.
	ListFunctions(ctx context.Context, env Environment) ([]string, error)

	// GenerateReport produces one report of the given kind named outName in
	// the project directory and returns the absolute path of the produced
	// file. A zero tool exit without the expected output file is an error.
	GenerateReport(ctx context.Context, env Environment, kind ReportKind, outName string) (string, error)
}
