// Package fsops abstracts the filesystem used for transcript export.
package fsops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	directoryPermissions  = 0o755
	filePermissions       = 0o644
	temporarySuffix       = ".tmp"
	maxPathCandidates     = 1000
	writeFileErrorFormat  = "write %s: %w"
	ensureDirErrorFormat  = "create directory for %s: %w"
	renameFileErrorFormat = "rename %s to %s: %w"
	noFreePathErrorFormat = "no free file name for %s after %d attempts"
)

// FS is an abstract filesystem used across the app and tests.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
}

// ---------- OS-backed implementation ----------

type OS struct{}

func NewOS() OS { return OS{} }

func (OS) ReadFile(name string) ([]byte, error) { return os.ReadFile(filepath.Clean(name)) }
func (OS) WriteFile(name string, b []byte, p os.FileMode) error {
	return os.WriteFile(filepath.Clean(name), b, p)
}
func (OS) Stat(name string) (fs.FileInfo, error)     { return os.Stat(filepath.Clean(name)) }
func (OS) Rename(a, b string) error                  { return os.Rename(a, b) }
func (OS) MkdirAll(path string, p os.FileMode) error { return os.MkdirAll(filepath.Clean(path), p) }

// ---------- In-memory implementation (for tests) ----------

type Mem struct{ Fs afero.Fs }

func NewMem() Mem { return Mem{Fs: afero.NewMemMapFs()} }

func (m Mem) ReadFile(name string) ([]byte, error) { return afero.ReadFile(m.Fs, filepath.Clean(name)) }
func (m Mem) WriteFile(name string, b []byte, p os.FileMode) error {
	return afero.WriteFile(m.Fs, filepath.Clean(name), b, p)
}
func (m Mem) Stat(name string) (fs.FileInfo, error) { return m.Fs.Stat(filepath.Clean(name)) }
func (m Mem) Rename(a, b string) error              { return m.Fs.Rename(a, b) }
func (m Mem) MkdirAll(path string, p os.FileMode) error {
	return m.Fs.MkdirAll(filepath.Clean(path), p)
}

// ---------- High-level façade ----------

type Ops struct{ FS FS }

func NewOps(fs FS) Ops { return Ops{FS: fs} }

func (o Ops) EnsureDir(path string) error { return o.FS.MkdirAll(filepath.Dir(path), directoryPermissions) }
func (o Ops) FileExists(p string) bool    { _, err := o.FS.Stat(p); return err == nil }

// WriteFileAtomic creates the parent directory, writes a temporary sibling and renames it into place.
func (o Ops) WriteFileAtomic(path string, data []byte) error {
	if err := o.EnsureDir(path); err != nil {
		return fmt.Errorf(ensureDirErrorFormat, path, err)
	}
	temporaryPath := path + temporarySuffix
	if err := o.FS.WriteFile(temporaryPath, data, filePermissions); err != nil {
		return fmt.Errorf(writeFileErrorFormat, temporaryPath, err)
	}
	if err := o.FS.Rename(temporaryPath, path); err != nil {
		return fmt.Errorf(renameFileErrorFormat, temporaryPath, path, err)
	}
	return nil
}

// AvailablePath returns path itself when free, otherwise the first free "name-N.ext" sibling.
func (o Ops) AvailablePath(path string) (string, error) {
	if !o.FileExists(path) {
		return path, nil
	}
	extension := filepath.Ext(path)
	stem := strings.TrimSuffix(path, extension)
	for index := 1; index <= maxPathCandidates; index++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, index, extension)
		if !o.FileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf(noFreePathErrorFormat, path, maxPathCandidates)
}
