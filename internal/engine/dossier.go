package engine

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"vcreport/internal/vcast"
)

const failureDossierFileName = "failure_dossier.json"

// FailureDossier is the structured record written on fatal failure so the
// user (or a wrapping tool) can diagnose the run without scraping stderr.
type FailureDossier struct {
	Version       int    `json:"version"`
	GeneratedAt   string `json:"generated_at"`
	RunID         string `json:"run_id,omitempty"`
	Module        string `json:"module,omitempty"`
	Stage         string `json:"stage"`
	FailureClass  string `json:"failure_class"`
	Reason        string `json:"reason"`
	ExitCode      int    `json:"exit_code,omitempty"`
	StderrExcerpt string `json:"stderr_excerpt,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
}

func buildFailureDossier(runID, module string, stage Stage, err error) FailureDossier {
	d := FailureDossier{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		RunID:       runID,
		Module:      module,
		Stage:       string(stage),
	}
	if err != nil {
		d.Reason = err.Error()
	}
	d.FailureClass, d.Suggestion = classifyFailure(err)
	var invErr *vcast.InvocationError
	if errors.As(err, &invErr) {
		d.ExitCode = invErr.ExitCode
		d.StderrExcerpt = invErr.StderrExcerpt
	}
	return d
}

// classifyFailure maps an error onto the known corrective categories: missing
// binary, missing environment file, permission problems, and the pipeline's
// own taxonomy.
func classifyFailure(err error) (class, suggestion string) {
	switch {
	case err == nil:
		return "unknown", ""
	case errors.Is(err, exec.ErrNotFound):
		return "tool_missing",
			"the external tool binary was not found; install it or set tool.path in the run config"
	case errors.Is(err, fs.ErrPermission) || os.IsPermission(err):
		return "permission",
			"a file or directory was not writable; check permissions on the project directory"
	}

	var inputErr *InputValidationError
	if errors.As(err, &inputErr) {
		if strings.Contains(inputErr.Reason, "environment file") {
			return "environment_missing",
				"no compiled environment file was found; check the module name or rebuild the environment"
		}
		if strings.Contains(inputErr.Reason, "binary") {
			return "tool_missing",
				"the external tool binary was not found; install it or set tool.path in the run config"
		}
		return "input_validation", "correct the run inputs and retry"
	}
	var enumErr *EnumerationError
	if errors.As(err, &enumErr) {
		return "enumeration",
			"the tool could not list functions; verify the environment builds and defines at least one function"
	}
	var collErr *NameCollisionError
	if errors.As(err, &collErr) {
		return "name_collision",
			"two functions sanitize to the same script file name; rename one of them"
	}
	var asmErr *AssemblyError
	if errors.As(err, &asmErr) {
		return "assembly",
			"a script write failed; check disk space and permissions, then re-run"
	}
	var orgErr *OrganizationError
	if errors.As(err, &orgErr) {
		return "organization",
			"a destination file conflicts with an unrelated pre-existing file; move it aside and re-run"
	}
	return "unknown", ""
}

// writeFailureDossier is best-effort; diagnostics must never mask the
// original failure.
func writeFailureDossier(logsRoot string, d FailureDossier) {
	if strings.TrimSpace(logsRoot) == "" {
		return
	}
	if err := os.MkdirAll(logsRoot, 0o755); err != nil {
		return
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(logsRoot, failureDossierFileName), append(b, '\n'), 0o644)
}
