package engine

import (
	"io/fs"
	"os"
)

// FS is the filesystem seam the pipeline stages mutate the project through.
// Stages never touch the os package directly for writes, so failure paths
// (disk full, permission denied, destination conflicts) are exercisable with
// fakes in tests.
type FS interface {
	MkdirAll(path string, perm fs.FileMode) error
	WriteFile(path string, data []byte, perm fs.FileMode) error
	ReadFile(path string) ([]byte, error)
	Rename(oldpath, newpath string) error
	Remove(path string) error
	Stat(path string) (fs.FileInfo, error)
}

// OSFS is the real-disk implementation.
type OSFS struct{}

func (OSFS) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }
func (OSFS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}
func (OSFS) ReadFile(path string) ([]byte, error)  { return os.ReadFile(path) }
func (OSFS) Rename(oldpath, newpath string) error  { return os.Rename(oldpath, newpath) }
func (OSFS) Remove(path string) error              { return os.Remove(path) }
func (OSFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// moveFile relocates src to dst with move semantics: after success src no
// longer exists. Rename is tried first; cross-device moves fall back to
// copy-then-remove.
func moveFile(fsys FS, src, dst string) error {
	if err := fsys.Rename(src, dst); err == nil {
		return nil
	}
	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}
	if err := fsys.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return fsys.Remove(src)
}
