package engine

import (
	"context"
	"errors"
	"fmt"

	"vcreport/internal/vcast"
)

// ReportOutcome records one report invocation. Err is nil on success; Path is
// the produced file before relocation.
type ReportOutcome struct {
	Kind vcast.ReportKind
	Path string
	Err  *ReportGenerationError
}

func (o ReportOutcome) OK() bool { return o.Err == nil }

// driveReports invokes the tool once per report kind, strictly sequentially:
// the tool is single-session per environment, so no invocation starts while a
// previous one is outstanding. A per-kind failure is recorded and the
// remaining kinds still run; only context cancellation stops the loop early,
// returning the outcomes gathered so far plus the cause.
func driveReports(ctx context.Context, tool vcast.Tool, spec vcast.InvocationSpec, env vcast.Environment, module string) ([]ReportOutcome, error) {
	outcomes := make([]ReportOutcome, 0, len(vcast.ReportKinds))
	for _, kind := range vcast.ReportKinds {
		if err := ctx.Err(); err != nil {
			return outcomes, context.Cause(ctx)
		}
		outName := module + spec.ReportSuffix(kind)
		path, err := tool.GenerateReport(ctx, env, kind, outName)
		if err != nil {
			outcomes = append(outcomes, ReportOutcome{Kind: kind, Err: asReportError(kind, err)})
			continue
		}
		outcomes = append(outcomes, ReportOutcome{Kind: kind, Path: path})
	}
	return outcomes, nil
}

func asReportError(kind vcast.ReportKind, err error) *ReportGenerationError {
	var invErr *vcast.InvocationError
	if errors.As(err, &invErr) {
		return &ReportGenerationError{
			Kind:     kind,
			ExitCode: invErr.ExitCode,
			Reason:   invErr.Error(),
			Err:      err,
		}
	}
	return &ReportGenerationError{
		Kind:     kind,
		ExitCode: -1,
		Reason:   fmt.Sprintf("%v", err),
		Err:      err,
	}
}
