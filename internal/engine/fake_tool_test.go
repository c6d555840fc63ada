package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"vcreport/internal/vcast"
)

// fakeTool is the in-process stand-in for the external binary. It records
// every call so tests can assert the tool was (or was not) invoked.
type fakeTool struct {
	mu        sync.Mutex
	functions []string
	listErr   error
	failKinds map[vcast.ReportKind]error
	calls     []string
}

func (f *fakeTool) ListFunctions(ctx context.Context, env vcast.Environment) ([]string, error) {
	_ = ctx
	f.mu.Lock()
	f.calls = append(f.calls, "list")
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string{}, f.functions...), nil
}

func (f *fakeTool) GenerateReport(ctx context.Context, env vcast.Environment, kind vcast.ReportKind, outName string) (string, error) {
	_ = ctx
	f.mu.Lock()
	f.calls = append(f.calls, "report_"+string(kind))
	f.mu.Unlock()
	if err := f.failKinds[kind]; err != nil {
		return "", err
	}
	path := filepath.Join(env.ProjectDir, outName)
	if err := os.WriteFile(path, []byte("<html>"+string(kind)+"</html>\n"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeTool) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

// failFS wraps the real disk and fails writes to one path. Used to exercise
// AssemblyError and OrganizationError paths deterministically.
type failFS struct {
	OSFS
	failPath string
	err      error
}

func (f failFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if path == f.failPath {
		return f.err
	}
	return f.OSFS.WriteFile(path, data, perm)
}

func (f failFS) Rename(oldpath, newpath string) error {
	if newpath == f.failPath {
		return f.err
	}
	return f.OSFS.Rename(oldpath, newpath)
}
