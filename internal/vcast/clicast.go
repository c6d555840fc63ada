package vcast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// InvocationSpec is the versioned invocation grammar for the external binary.
// Argument templates expand {env}, {unit}, {directive}, and {output}
// placeholders at call time. Defaults match the clicast grammar the tool ships
// with today; a changed tool release is accommodated by overriding these in
// the run config.
type InvocationSpec struct {
	// Path is the binary path or bare name (resolved via PATH).
	Path string
	// ListingArgs produce a full-environment test-script listing into {output}.
	ListingArgs []string
	// ReportArgs produce one {directive} report into {output}.
	ReportArgs []string
	// ReportDirectives maps report kind to the tool's directive token.
	ReportDirectives map[ReportKind]string
	// ReportSuffixes maps report kind to the output file suffix appended to
	// the module name.
	ReportSuffixes map[ReportKind]string
}

// DefaultInvocationSpec returns the grammar for the stock tool.
func DefaultInvocationSpec() InvocationSpec {
	return InvocationSpec{
		Path:        "clicast",
		ListingArgs: []string{"-lc", "-e", "{env}", "TESt", "Script", "CReate", "{output}"},
		ReportArgs:  []string{"-lc", "-e", "{env}", "Reports", "Custom", "{directive}", "{output}"},
		ReportDirectives: map[ReportKind]string{
			ReportManagement: "MAnagement",
			ReportExecution:  "ACtual",
			ReportFull:       "FULl",
		},
		ReportSuffixes: map[ReportKind]string{
			ReportManagement: "_Testcase_Management_Report.html",
			ReportExecution:  "_Execution_Results_Report.html",
			ReportFull:       "_Full_Report.html",
		},
	}
}

// ReportSuffix returns the output suffix for kind, falling back to the stock
// grammar when the spec carries no override.
func (s InvocationSpec) ReportSuffix(kind ReportKind) string {
	if suffix, ok := s.ReportSuffixes[kind]; ok && suffix != "" {
		return suffix
	}
	return DefaultInvocationSpec().ReportSuffixes[kind]
}

// InvocationError reports a failed tool invocation with enough context for a
// useful diagnostic.
type InvocationError struct {
	Label         string
	ExitCode      int
	StderrExcerpt string
	Err           error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("tool invocation %s failed (exit %d)", e.Label, e.ExitCode)
	if e.StderrExcerpt != "" {
		msg += ": " + e.StderrExcerpt
	}
	return msg
}

func (e *InvocationError) Unwrap() error { return e.Err }

// CLITool drives the external binary. When LogsRoot is non-empty, every
// invocation leaves stdout.log, stderr.log, invocation.json, and timing.json
// under LogsRoot/<label>/ so a failed run can be diagnosed after the fact.
type CLITool struct {
	Spec     InvocationSpec
	LogsRoot string
}

func NewCLITool(spec InvocationSpec, logsRoot string) *CLITool {
	if spec.Path == "" {
		spec.Path = DefaultInvocationSpec().Path
	}
	return &CLITool{Spec: spec, LogsRoot: logsRoot}
}

// CheckInstallation verifies the configured binary exists before any work
// starts. Bare names resolve through PATH; explicit paths must stat.
func (t *CLITool) CheckInstallation() error {
	path := t.Spec.Path
	if strings.ContainsRune(path, os.PathSeparator) || strings.ContainsRune(path, '/') {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("tool binary not found at %s: %w", path, err)
		}
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("tool binary %q not found in PATH: %w", path, err)
	}
	return nil
}

func (t *CLITool) ListFunctions(ctx context.Context, env Environment) ([]string, error) {
	listingName := env.Name + "_listing.tst"
	listingPath := filepath.Join(env.ProjectDir, listingName)
	// The listing file is a scratch artifact; never leave it behind.
	defer func() { _ = os.Remove(listingPath) }()

	args := expandArgs(t.listingArgs(), map[string]string{
		"{env}":    env.Name,
		"{unit}":   env.Unit,
		"{output}": listingName,
	})
	if err := t.run(ctx, env, "listing", args); err != nil {
		return nil, err
	}
	f, err := os.Open(listingPath)
	if err != nil {
		return nil, fmt.Errorf("tool reported success but produced no listing at %s: %w", listingPath, err)
	}
	defer f.Close()
	return ParseSubprograms(f)
}

func (t *CLITool) GenerateReport(ctx context.Context, env Environment, kind ReportKind, outName string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("invalid report kind: %q", kind)
	}
	directive, ok := t.Spec.ReportDirectives[kind]
	if !ok || directive == "" {
		directive = DefaultInvocationSpec().ReportDirectives[kind]
	}
	args := expandArgs(t.reportArgs(), map[string]string{
		"{env}":       env.Name,
		"{unit}":      env.Unit,
		"{directive}": directive,
		"{output}":    outName,
	})
	if err := t.run(ctx, env, "report_"+string(kind), args); err != nil {
		return "", err
	}
	outPath := filepath.Join(env.ProjectDir, outName)
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("tool reported success but produced no %s report at %s: %w", kind, outPath, err)
	}
	return outPath, nil
}

func (t *CLITool) listingArgs() []string {
	if len(t.Spec.ListingArgs) > 0 {
		return t.Spec.ListingArgs
	}
	return DefaultInvocationSpec().ListingArgs
}

func (t *CLITool) reportArgs() []string {
	if len(t.Spec.ReportArgs) > 0 {
		return t.Spec.ReportArgs
	}
	return DefaultInvocationSpec().ReportArgs
}

func (t *CLITool) run(ctx context.Context, env Environment, label string, args []string) error {
	var stageDir string
	if t.LogsRoot != "" {
		stageDir = filepath.Join(t.LogsRoot, label)
		_ = os.MkdirAll(stageDir, 0o755)
		_ = writeJSON(filepath.Join(stageDir, "invocation.json"), map[string]any{
			"executable":  t.Spec.Path,
			"argv":        args,
			"working_dir": env.ProjectDir,
			"environment": env.Name,
		})
	}

	cmd := exec.CommandContext(ctx, t.Spec.Path, args...)
	cmd.Dir = env.ProjectDir
	// The tool must never block on interactive reads in an automated session.
	cmd.Stdin = strings.NewReader("")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	dur := time.Since(start)
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	if stageDir != "" {
		_ = os.WriteFile(filepath.Join(stageDir, "stdout.log"), []byte(stdout.String()), 0o644)
		_ = os.WriteFile(filepath.Join(stageDir, "stderr.log"), []byte(stderr.String()), 0o644)
		_ = writeJSON(filepath.Join(stageDir, "timing.json"), map[string]any{
			"duration_ms": dur.Milliseconds(),
			"exit_code":   exitCode,
		})
	}

	if err != nil {
		return &InvocationError{
			Label:         label,
			ExitCode:      exitCode,
			StderrExcerpt: truncate(strings.TrimSpace(stderr.String()), 2000),
			Err:           err,
		}
	}
	return nil
}

func expandArgs(templ []string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	rep := strings.NewReplacer(pairs...)
	out := make([]string, len(templ))
	for i, a := range templ {
		out[i] = rep.Replace(a)
	}
	return out
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
