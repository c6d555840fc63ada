package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"vcreport/internal/vcast"
)

// MasterScript is the consolidated script the tool recognizes. References
// preserve artifact order: functions in discovery order, compound last.
type MasterScript struct {
	Module     string
	Path       string
	References []string
}

// assembleScripts writes every artifact into the unit-test directory and the
// master script at the project root as <ENV>.tst. Any write failure aborts
// with AssemblyError listing the paths that landed before the failure.
// Returned warnings name stale .tst files from prior runs that do not belong
// to the current artifact set; they are reported, never deleted.
func assembleScripts(fsys FS, cfg *RunConfig, env vcast.Environment, artifacts []ScriptArtifact) (*MasterScript, []string, error) {
	unitDir := filepath.Join(env.ProjectDir, cfg.Layout.UnitTestsDir)
	if err := fsys.MkdirAll(unitDir, 0o755); err != nil {
		return nil, nil, &AssemblyError{Path: unitDir, Err: err}
	}

	warnings := staleArtifactWarnings(unitDir, artifacts)

	var written []string
	for _, a := range artifacts {
		path := filepath.Join(unitDir, a.FileName)
		if err := fsys.WriteFile(path, a.Content, 0o644); err != nil {
			return nil, warnings, &AssemblyError{Path: path, Written: written, Err: err}
		}
		written = append(written, path)
	}

	master := &MasterScript{
		Module: env.Unit,
		Path:   filepath.Join(env.ProjectDir, env.Name+".tst"),
	}
	var b strings.Builder
	fmt.Fprintf(&b, "-- Master Test Script\n")
	fmt.Fprintf(&b, "--\n")
	fmt.Fprintf(&b, "-- Environment: %s\n", env.Name)
	fmt.Fprintf(&b, "-- Unit: %s\n", env.Unit)
	fmt.Fprintf(&b, "-- Included scripts (in order):\n")
	for _, a := range artifacts {
		fmt.Fprintf(&b, "--   %s\n", a.FileName)
		master.References = append(master.References, a.FileName)
	}
	fmt.Fprintf(&b, "--\n")
	for _, a := range artifacts {
		fmt.Fprintf(&b, "-- Script: %s\n", a.FileName)
		b.Write(a.Content)
	}
	if err := fsys.WriteFile(master.Path, []byte(b.String()), 0o644); err != nil {
		return nil, warnings, &AssemblyError{Path: master.Path, Written: written, Err: err}
	}
	return master, warnings, nil
}

// staleArtifactWarnings scans the unit-test directory for script files left by
// a previous run that the current artifact set will not rewrite. Best-effort:
// a scan failure only means no warnings.
func staleArtifactWarnings(unitDir string, artifacts []ScriptArtifact) []string {
	if _, err := os.Stat(unitDir); err != nil {
		return nil
	}
	current := map[string]bool{}
	for _, a := range artifacts {
		current[a.FileName] = true
	}
	matches, err := doublestar.Glob(os.DirFS(unitDir), "**/*.tst")
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	var warnings []string
	for _, m := range matches {
		// Matches use fs.FS slash-separated paths; only top-level files can
		// belong to the current set.
		if current[m] && !strings.ContainsRune(m, '/') {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("stale script in %s: %s", filepath.Base(unitDir), m))
	}
	return warnings
}
