package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vcreport/internal/engine"
	"vcreport/internal/version"
)

func signalCancelContext() (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(context.Background())
	sigCh := make(chan os.Signal, 1)
	stopCh := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				cancel(fmt.Errorf("stopped by signal %s", sig.String()))
			case <-stopCh:
				return
			}
		}
	}()
	cleanup := func() {
		signal.Stop(sigCh)
		close(stopCh)
		cancel(nil)
	}
	return ctx, cleanup
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("vcreport %s\n", version.Version)
		os.Exit(0)
	case "run":
		runCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  vcreport --version")
	fmt.Fprintln(os.Stderr, "  vcreport run [--module <name>] [--compound] [--config <file.yaml>] [--tool <path>]")
	fmt.Fprintln(os.Stderr, "               [--project <dir>] [--logs-root <dir>] [--run-id <id>] [--no-input]")
}

func runCmd(args []string) {
	var moduleName string
	var configPath string
	var toolPath string
	var projectDir string
	var logsRoot string
	var runID string
	var compound bool
	var noInput bool

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--compound":
			compound = true
		case "--no-input":
			noInput = true
		case "--module":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--module requires a value")
				os.Exit(1)
			}
			moduleName = args[i]
		case "--config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a value")
				os.Exit(1)
			}
			configPath = args[i]
		case "--tool":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--tool requires a value")
				os.Exit(1)
			}
			toolPath = args[i]
		case "--project":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--project requires a value")
				os.Exit(1)
			}
			projectDir = args[i]
		case "--logs-root":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--logs-root requires a value")
				os.Exit(1)
			}
			logsRoot = args[i]
		case "--run-id":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--run-id requires a value")
				os.Exit(1)
			}
			runID = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(1)
		}
	}

	cfg := engine.DefaultRunConfig()
	if configPath != "" {
		loaded, err := engine.LoadRunConfigFile(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if toolPath != "" {
		cfg.Tool.Path = toolPath
	}

	interviewer := &engine.ConsoleInterviewer{}
	moduleName, compound, err := resolveRunInputs(interviewer, moduleName, compound, noInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cleanupSignalCtx := signalCancelContext()
	res, err := engine.Run(ctx, cfg, engine.RunOptions{
		Module:          moduleName,
		IncludeCompound: compound,
		ProjectDir:      projectDir,
		LogsRoot:        logsRoot,
		RunID:           runID,
	})
	cleanupSignalCtx()

	if res != nil {
		fmt.Printf("run_id=%s\n", res.RunID)
		fmt.Printf("module=%s\n", res.Module)
		fmt.Printf("environment=%s\n", res.Environment)
		fmt.Printf("functions=%d\n", len(res.Functions))
		for _, rep := range res.Reports {
			if rep.OK() {
				fmt.Printf("report_%s=ok\n", rep.Kind)
			} else {
				fmt.Printf("report_%s=failed\n", rep.Kind)
			}
		}
		for _, rec := range res.Relocated {
			if rec.OK() {
				fmt.Printf("artifact_%s=%s\n", rec.Label, rec.Dest)
			} else {
				fmt.Printf("artifact_%s=failed\n", rec.Label)
			}
		}
		fmt.Printf("status=%s\n", res.Stage)
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if res != nil {
			fmt.Fprintf(os.Stderr, "failed stage: %s\n", res.FailedStage)
			if res.Suggestion != "" {
				fmt.Fprintf(os.Stderr, "suggestion: %s\n", res.Suggestion)
			}
		}
		os.Exit(1)
	}
	os.Exit(0)
}

// resolveRunInputs fills the interactive inputs that were not supplied as
// flags: the module name (re-asked while the answer is empty) and the compound
// flag (asked once; --no-input suppresses the prompt and keeps the flag
// value). Input exhaustion is an error, never a reason to re-ask.
func resolveRunInputs(iv engine.Interviewer, moduleName string, compound, noInput bool) (string, bool, error) {
	for moduleName == "" {
		a, err := iv.Ask(engine.Question{
			Stage: "setup",
			Text:  "Enter the module name",
			Type:  engine.QuestionFreeText,
		})
		if err != nil {
			return "", false, fmt.Errorf("module name required (use --module): %w", err)
		}
		moduleName = a.Text
	}
	if !compound && !noInput {
		a, err := iv.Ask(engine.Question{
			Stage: "setup",
			Text:  "Generate a separate script for compound test cases?",
			Type:  engine.QuestionConfirm,
		})
		if err != nil {
			return "", false, fmt.Errorf("compound choice required (use --compound or --no-input): %w", err)
		}
		compound = a.Yes
	}
	return moduleName, compound, nil
}
