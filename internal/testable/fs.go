// Package testable provides seams over the operating system (file system,
// process execution, git discovery) so packages can be exercised in tests
// without touching a real DerivedData folder or installed tools.
package testable

import (
	"os"
	"path/filepath"
)

// FileSystem is the subset of file operations buildsignal performs.
type FileSystem interface {
	// Abs returns an absolute representation of path.
	Abs(path string) (string, error)

	// Stat returns a FileInfo describing the named file.
	Stat(name string) (os.FileInfo, error)

	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// ReadDir lists the named directory sorted by file name.
	ReadDir(name string) ([]os.DirEntry, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory named path, along with any necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// Create creates or truncates the named file.
	Create(name string) (*os.File, error)

	// Open opens the named file for reading.
	Open(name string) (*os.File, error)
}

// OsFileSystem delegates to the os and filepath packages.
type OsFileSystem struct{}

// Abs wraps filepath.Abs.
func (OsFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// Stat wraps os.Stat.
func (OsFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile wraps os.ReadFile.
func (OsFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // caller controls path
}

// ReadDir wraps os.ReadDir.
func (OsFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// WriteFile wraps os.WriteFile.
func (OsFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:gosec // caller controls path and perms
}

// MkdirAll wraps os.MkdirAll.
func (OsFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Create wraps os.Create.
func (OsFileSystem) Create(name string) (*os.File, error) {
	return os.Create(name) //nolint:gosec // caller controls path
}

// Open wraps os.Open.
func (OsFileSystem) Open(name string) (*os.File, error) {
	return os.Open(name) //nolint:gosec // caller controls path
}

// DefaultFS is the production FileSystem. Packages use it unless a test
// injects something else.
var DefaultFS FileSystem = OsFileSystem{}
