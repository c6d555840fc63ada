package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"vcreport/internal/envfile"
	"vcreport/internal/vcast"
)

// RunOptions are the orchestrator inputs. Module is required (directly or via
// an interviewer at the CLI layer); everything else has working defaults.
type RunOptions struct {
	Module          string
	IncludeCompound bool

	// ProjectDir is the directory holding the environment file and receiving
	// the output layout. Defaults to the current directory.
	ProjectDir string
	// LogsRoot receives per-invocation capture files and the failure dossier.
	// Defaults to <ProjectDir>/.vcreport/<RunID>.
	LogsRoot string
	RunID    string

	// Tool overrides the external-tool implementation; tests inject fakes
	// here. Nil selects the real CLI tool from the config grammar.
	Tool vcast.Tool
	// FS overrides the filesystem seam. Nil selects the real disk.
	FS FS
}

// Result is the terminal report of a run. A run that returns a non-nil error
// still carries the Result gathered so far: partial output is diagnostic
// value, never cleaned up automatically.
type Result struct {
	RunID       string
	Module      string
	Environment string
	EnvFile     string

	Stage       Stage // done or failed
	FailedStage Stage // set when Stage == failed

	// FailureClass and Suggestion are set on fatal failure so callers can
	// surface the corrective hint without digging out the dossier file.
	FailureClass string
	Suggestion   string

	Functions        []string
	Artifacts        []string // unit-test script file names, in order
	MasterReferences []string
	Reports          []ReportOutcome
	Relocated        []RelocatedArtifact
	Inventory        []string
	Warnings         []string
}

// ReportsSucceeded counts the report kinds that were produced and relocated.
func (r *Result) ReportsSucceeded() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.OK() {
			n++
		}
	}
	return n
}

// Run drives the whole pipeline: validate inputs, enumerate functions,
// synthesize scripts, assemble the master, generate reports, organize
// artifacts. Execution is single-threaded and synchronous; no tool invocation
// overlaps another. On fatal failure the run transitions to Failed, keeps all
// artifacts produced so far, writes a failure dossier under the logs root,
// and returns the error alongside the partial Result.
func Run(ctx context.Context, cfg *RunConfig, opts RunOptions) (*Result, error) {
	if cfg == nil {
		cfg = DefaultRunConfig()
	} else {
		applyConfigDefaults(cfg)
	}

	module := strings.TrimSpace(opts.Module)
	res := &Result{Module: module, Stage: StageInit}
	stage := StageInit

	fail := func(err error) (*Result, error) {
		res.Stage = StageFailed
		res.FailedStage = stage
		res.FailureClass, res.Suggestion = classifyFailure(err)
		writeFailureDossier(opts.LogsRoot, buildFailureDossier(res.RunID, module, stage, err))
		return res, err
	}
	interrupted := func() error {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return nil
	}

	// Init: validate preconditions before the tool is invoked at all.
	if module == "" {
		return fail(&InputValidationError{Reason: "module name must not be empty"})
	}
	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fail(&InputValidationError{Reason: fmt.Sprintf("resolving project directory: %v", err), Err: err})
	}
	if opts.RunID == "" {
		id, err := NewRunID()
		if err != nil {
			return fail(err)
		}
		opts.RunID = id
	}
	res.RunID = opts.RunID
	if opts.LogsRoot == "" {
		opts.LogsRoot = filepath.Join(projectDir, ".vcreport", opts.RunID)
	}

	env := vcast.Environment{
		Name:       strings.ToUpper(module),
		Unit:       module,
		ProjectDir: projectDir,
	}
	res.Environment = env.Name

	envPath, err := envfile.Probe(projectDir, module)
	if err != nil {
		return fail(&InputValidationError{
			Reason: fmt.Sprintf("environment file %s.env not found in %s", module, projectDir),
			Err:    err,
		})
	}
	res.EnvFile = envPath
	if md, err := envfile.Read(envPath); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("environment file unreadable: %v", err))
	} else if md.Name != "" && !strings.EqualFold(md.Name, env.Name) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("environment file declares ENVIRO.NAME %q, expected %q", md.Name, env.Name))
	}

	tool := opts.Tool
	if tool == nil {
		cliTool := vcast.NewCLITool(cfg.InvocationSpec(), opts.LogsRoot)
		if err := cliTool.CheckInstallation(); err != nil {
			return fail(&InputValidationError{Reason: fmt.Sprintf("tool binary unavailable: %v", err), Err: err})
		}
		tool = cliTool
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = OSFS{}
	}

	stage = stage.advance() // enumerating
	if err := interrupted(); err != nil {
		return fail(err)
	}
	fns, err := enumerateFunctions(ctx, tool, env)
	if err != nil {
		return fail(err)
	}
	for _, fn := range fns {
		res.Functions = append(res.Functions, fn.Name)
	}

	stage = stage.advance() // synthesizing
	if err := interrupted(); err != nil {
		return fail(err)
	}
	artifacts, err := synthesizeScripts(env, fns, opts.IncludeCompound)
	if err != nil {
		return fail(err)
	}
	for _, a := range artifacts {
		res.Artifacts = append(res.Artifacts, a.FileName)
	}

	stage = stage.advance() // assembling
	if err := interrupted(); err != nil {
		return fail(err)
	}
	master, staleWarnings, err := assembleScripts(fsys, cfg, env, artifacts)
	res.Warnings = append(res.Warnings, staleWarnings...)
	if err != nil {
		return fail(err)
	}
	res.MasterReferences = append([]string{}, master.References...)

	stage = stage.advance() // reporting
	if err := interrupted(); err != nil {
		return fail(err)
	}
	outcomes, err := driveReports(ctx, tool, cfg.InvocationSpec(), env, module)
	res.Reports = outcomes
	if err != nil {
		return fail(err)
	}

	stage = stage.advance() // organizing
	if err := interrupted(); err != nil {
		return fail(err)
	}
	relocated, err := organizeArtifacts(fsys, cfg, env, master, outcomes, opts.RunID)
	res.Relocated = relocated
	if err != nil {
		return fail(err)
	}
	res.Inventory = artifactInventory(cfg, projectDir)

	stage = stage.advance() // done
	res.Stage = StageDone
	return res, nil
}
