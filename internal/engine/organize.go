package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"vcreport/internal/vcast"
)

// runMarkerFileName is the run-scoped marker kept inside the results
// directory. It records which files this tool owns there, so an idempotent
// re-run may overwrite them while unrelated pre-existing files stay protected.
const runMarkerFileName = ".vcreport_run"

type runMarker struct {
	RunID       string   `json:"run_id"`
	Module      string   `json:"module"`
	Artifacts   []string `json:"artifacts"`
	CompletedAt string   `json:"completed_at"`
}

// RelocatedArtifact records one relocation attempt into the results
// directory. Err is nil when the artifact landed.
type RelocatedArtifact struct {
	Label  string
	Source string
	Dest   string
	Err    *OrganizationError
}

func (a RelocatedArtifact) OK() bool { return a.Err == nil }

// organizeArtifacts creates the results directory (idempotently), moves the
// master script and every succeeded report into it under canonical names, and
// rewrites the run marker. A relocation failure is recorded on the artifact it
// affects and never blocks the remaining moves; a failed master relocation
// additionally fails the stage, after the reports have moved, because the
// master is the canonical deliverable.
//
// Overwrite policy: an existing destination may be replaced only when the run
// marker from a prior run records it as ours. Anything else at the
// destination, even under a canonical name, predates this tool and is
// protected.
func organizeArtifacts(fsys FS, cfg *RunConfig, env vcast.Environment, master *MasterScript, reports []ReportOutcome, runID string) ([]RelocatedArtifact, error) {
	resultsDir := filepath.Join(env.ProjectDir, cfg.Layout.ResultsDir)
	if err := fsys.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, &OrganizationError{Dest: resultsDir, Reason: "creating results directory", Err: err}
	}

	prior := readRunMarker(fsys, resultsDir)

	relocate := func(label, src, dstName string) RelocatedArtifact {
		dst := filepath.Join(resultsDir, dstName)
		rec := RelocatedArtifact{Label: label, Source: src, Dest: dst}
		if _, err := fsys.Stat(dst); err == nil {
			if !markerOwns(prior, dstName) {
				rec.Err = &OrganizationError{
					Source: src,
					Dest:   dst,
					Reason: "destination exists and is not an artifact of this tool",
				}
				return rec
			}
			// A prior run's same-named artifact: safe to overwrite, but the
			// destination must be cleared first so Rename works everywhere.
			if err := fsys.Remove(dst); err != nil {
				rec.Err = &OrganizationError{Source: src, Dest: dst, Reason: "clearing prior artifact", Err: err}
				return rec
			}
		}
		if err := moveFile(fsys, src, dst); err != nil {
			rec.Err = &OrganizationError{Source: src, Dest: dst, Reason: "relocating artifact", Err: err}
		}
		return rec
	}

	var relocated []RelocatedArtifact

	masterRec := relocate("master", master.Path, env.Unit+".tst")
	relocated = append(relocated, masterRec)

	for _, rep := range reports {
		if !rep.OK() {
			continue
		}
		label := "report_" + string(rep.Kind)
		relocated = append(relocated, relocate(label, rep.Path, filepath.Base(rep.Path)))
	}

	writeRunMarker(fsys, resultsDir, runID, env.Unit, relocated)
	if masterRec.Err != nil {
		return relocated, masterRec.Err
	}
	return relocated, nil
}

func markerOwns(m *runMarker, name string) bool {
	if m == nil {
		return false
	}
	for _, a := range m.Artifacts {
		if a == name {
			return true
		}
	}
	return false
}

func readRunMarker(fsys FS, resultsDir string) *runMarker {
	b, err := fsys.ReadFile(filepath.Join(resultsDir, runMarkerFileName))
	if err != nil {
		return nil
	}
	var m runMarker
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return &m
}

// writeRunMarker is best-effort: a marker write failure must not fail a run
// whose artifacts already landed.
func writeRunMarker(fsys FS, resultsDir, runID, module string, relocated []RelocatedArtifact) {
	m := runMarker{
		RunID:       runID,
		Module:      module,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, rec := range relocated {
		if rec.OK() {
			m.Artifacts = append(m.Artifacts, filepath.Base(rec.Dest))
		}
	}
	sort.Strings(m.Artifacts)
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return
	}
	_ = fsys.WriteFile(filepath.Join(resultsDir, runMarkerFileName), append(b, '\n'), 0o644)
}

// artifactInventory globs the canonical output directories for the final
// summary. Read-only and best-effort; it runs against the real disk because
// it reports what actually landed.
func artifactInventory(cfg *RunConfig, projectDir string) []string {
	pattern := fmt.Sprintf("{%s,%s}/**/*.{tst,html}", cfg.Layout.UnitTestsDir, cfg.Layout.ResultsDir)
	matches, err := doublestar.Glob(os.DirFS(projectDir), pattern)
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}
