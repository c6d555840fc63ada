package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vcreport/internal/vcast"
)

func writeCalcEnvFile(t *testing.T, project string) {
	t.Helper()
	content := "ENVIRO.NEW\n" +
		"ENVIRO.NAME: CALC\n" +
		"ENVIRO.UNIT: Calc\n" +
		"ENVIRO.COMPILER: GNU_C\n" +
		"ENVIRO.END\n"
	if err := os.WriteFile(filepath.Join(project, "Calc.env"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_CalcEndToEnd(t *testing.T) {
	project := t.TempDir()
	writeCalcEnvFile(t, project)
	tool := &fakeTool{functions: []string{"add", "subtract"}}

	res, err := Run(context.Background(), nil, RunOptions{
		Module:     "Calc",
		ProjectDir: project,
		Tool:       tool,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stage != StageDone {
		t.Fatalf("stage: got %s", res.Stage)
	}
	if res.Environment != "CALC" {
		t.Fatalf("environment: got %q", res.Environment)
	}
	if res.RunID == "" {
		t.Fatalf("run id must be assigned")
	}
	if len(res.Functions) != 2 || res.Functions[0] != "add" || res.Functions[1] != "subtract" {
		t.Fatalf("functions: got %v", res.Functions)
	}

	// One script per function, no compound without the flag.
	for _, name := range []string{"add.tst", "subtract.tst"} {
		if _, err := os.Stat(filepath.Join(project, "Unit_Tst", name)); err != nil {
			t.Fatalf("missing unit-test script %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(project, "Unit_Tst", CompoundFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("compound script must not exist, stat err = %v", err)
	}

	// Master and all three reports relocated into Results.
	results := filepath.Join(project, "Results")
	for _, name := range []string{
		"Calc.tst",
		"Calc_Testcase_Management_Report.html",
		"Calc_Execution_Results_Report.html",
		"Calc_Full_Report.html",
	} {
		if _, err := os.Stat(filepath.Join(results, name)); err != nil {
			t.Fatalf("missing %s in Results: %v", name, err)
		}
	}
	if got := res.ReportsSucceeded(); got != 3 {
		t.Fatalf("reports succeeded: got %d want 3", got)
	}

	// Invocation order: listing first, then the three reports in fixed order.
	wantCalls := []string{"list", "report_management", "report_execution", "report_full"}
	calls := tool.callLog()
	if len(calls) != len(wantCalls) {
		t.Fatalf("calls: got %v", calls)
	}
	for i := range wantCalls {
		if calls[i] != wantCalls[i] {
			t.Fatalf("call order: got %v want %v", calls, wantCalls)
		}
	}

	if len(res.Inventory) == 0 {
		t.Fatalf("inventory must list the landed artifacts")
	}
}

func TestRun_CompoundFlag(t *testing.T) {
	project := t.TempDir()
	writeCalcEnvFile(t, project)
	tool := &fakeTool{functions: []string{"add", "subtract"}}

	res, err := Run(context.Background(), nil, RunOptions{
		Module:          "Calc",
		IncludeCompound: true,
		ProjectDir:      project,
		Tool:            tool,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(project, "Unit_Tst", CompoundFileName)); err != nil {
		t.Fatalf("compound script missing: %v", err)
	}
	last := res.MasterReferences[len(res.MasterReferences)-1]
	if last != CompoundFileName {
		t.Fatalf("master must reference the compound script last, got %v", res.MasterReferences)
	}
}

func TestRun_MissingEnvFile(t *testing.T) {
	project := t.TempDir()
	tool := &fakeTool{functions: []string{"add"}}

	res, err := Run(context.Background(), nil, RunOptions{
		Module:     "Calc",
		ProjectDir: project,
		Tool:       tool,
	})
	var valErr *InputValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("want *InputValidationError, got %v", err)
	}
	if res.Stage != StageFailed || res.FailedStage != StageInit {
		t.Fatalf("stage: got %s failed at %s", res.Stage, res.FailedStage)
	}
	// The corrective hint must surface on the Result, not only in the dossier.
	if res.FailureClass != "environment_missing" {
		t.Fatalf("failure class: got %q", res.FailureClass)
	}
	if res.Suggestion == "" {
		t.Fatalf("a fatal failure must carry a corrective suggestion")
	}
	if got := len(tool.callLog()); got != 0 {
		t.Fatalf("tool must never be invoked on validation failure, got %d calls", got)
	}
	if _, err := os.Stat(filepath.Join(project, "Unit_Tst")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no output directory may be created, stat err = %v", err)
	}
}

func TestRun_EmptyModule(t *testing.T) {
	res, err := Run(context.Background(), nil, RunOptions{Module: "  "})
	var valErr *InputValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("want *InputValidationError, got %v", err)
	}
	if res.FailedStage != StageInit {
		t.Fatalf("failed stage: got %s", res.FailedStage)
	}
}

func TestRun_NoFunctions(t *testing.T) {
	project := t.TempDir()
	writeCalcEnvFile(t, project)
	tool := &fakeTool{functions: nil}

	res, err := Run(context.Background(), nil, RunOptions{
		Module:     "Calc",
		ProjectDir: project,
		Tool:       tool,
	})
	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("want *EnumerationError, got %v", err)
	}
	if res.FailedStage != StageEnumerating {
		t.Fatalf("failed stage: got %s", res.FailedStage)
	}
	if res.FailureClass != "enumeration" || res.Suggestion == "" {
		t.Fatalf("classification missing: %q / %q", res.FailureClass, res.Suggestion)
	}
	if _, err := os.Stat(filepath.Join(project, "Unit_Tst")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no script may be written for an empty environment, stat err = %v", err)
	}
}

func TestRun_NameCollisionIsFatalBeforeAnyWrite(t *testing.T) {
	project := t.TempDir()
	writeCalcEnvFile(t, project)
	tool := &fakeTool{functions: []string{"op:add", "op?add"}}

	res, err := Run(context.Background(), nil, RunOptions{
		Module:     "Calc",
		ProjectDir: project,
		Tool:       tool,
	})
	var collErr *NameCollisionError
	if !errors.As(err, &collErr) {
		t.Fatalf("want *NameCollisionError, got %v", err)
	}
	if res.FailedStage != StageSynthesizing {
		t.Fatalf("failed stage: got %s", res.FailedStage)
	}
	if _, err := os.Stat(filepath.Join(project, "Unit_Tst")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no script may be written on a collision, stat err = %v", err)
	}
}

func TestRun_PartialReportFailureStillCompletes(t *testing.T) {
	project := t.TempDir()
	writeCalcEnvFile(t, project)
	tool := &fakeTool{
		functions: []string{"add", "subtract"},
		failKinds: map[vcast.ReportKind]error{
			vcast.ReportExecution: &vcast.InvocationError{Label: "report_execution", ExitCode: 3, StderrExcerpt: "no results"},
		},
	}

	res, err := Run(context.Background(), nil, RunOptions{
		Module:     "Calc",
		ProjectDir: project,
		Tool:       tool,
	})
	if err != nil {
		t.Fatalf("a per-kind report failure must not fail the run: %v", err)
	}
	if res.Stage != StageDone {
		t.Fatalf("stage: got %s", res.Stage)
	}
	if got := res.ReportsSucceeded(); got != 2 {
		t.Fatalf("reports succeeded: got %d want 2", got)
	}
	results := filepath.Join(project, "Results")
	if _, err := os.Stat(filepath.Join(results, "Calc_Execution_Results_Report.html")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed report must not land in Results, stat err = %v", err)
	}
	for _, name := range []string{"Calc_Testcase_Management_Report.html", "Calc_Full_Report.html"} {
		if _, err := os.Stat(filepath.Join(results, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	project := t.TempDir()
	writeCalcEnvFile(t, project)

	run := func() *Result {
		tool := &fakeTool{functions: []string{"add", "subtract"}}
		res, err := Run(context.Background(), nil, RunOptions{
			Module:     "Calc",
			ProjectDir: project,
			Tool:       tool,
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res
	}

	run()
	first := map[string][]byte{}
	for _, rel := range []string{
		filepath.Join("Unit_Tst", "add.tst"),
		filepath.Join("Unit_Tst", "subtract.tst"),
		filepath.Join("Results", "Calc.tst"),
	} {
		b, err := os.ReadFile(filepath.Join(project, rel))
		if err != nil {
			t.Fatal(err)
		}
		first[rel] = b
	}

	res := run()
	if res.Stage != StageDone {
		t.Fatalf("re-run stage: got %s", res.Stage)
	}
	for rel, want := range first {
		got, err := os.ReadFile(filepath.Join(project, rel))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(want) {
			t.Fatalf("%s content changed across identical runs", rel)
		}
	}
}

func TestRun_CancellationBeforeEnumeration(t *testing.T) {
	project := t.TempDir()
	writeCalcEnvFile(t, project)
	tool := &fakeTool{functions: []string{"add"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, nil, RunOptions{
		Module:     "Calc",
		ProjectDir: project,
		Tool:       tool,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if res.Stage != StageFailed {
		t.Fatalf("stage: got %s", res.Stage)
	}
	if got := len(tool.callLog()); got != 0 {
		t.Fatalf("tool must not be invoked after cancellation, got %d calls", got)
	}
}

func TestRun_WritesFailureDossier(t *testing.T) {
	project := t.TempDir()
	logs := filepath.Join(project, "logs")
	tool := &fakeTool{functions: []string{"add"}}

	_, err := Run(context.Background(), nil, RunOptions{
		Module:     "Calc",
		ProjectDir: project,
		LogsRoot:   logs,
		Tool:       tool,
	})
	if err == nil {
		t.Fatalf("missing env file must fail the run")
	}
	if _, err := os.Stat(filepath.Join(logs, "failure_dossier.json")); err != nil {
		t.Fatalf("failure dossier missing: %v", err)
	}
}
