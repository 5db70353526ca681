package testable

import (
	"os"
)

// MockFileSystem is a test double for FileSystem. Each method has a
// corresponding function field; when it is nil the call falls through to
// OsFileSystem, so tests override only what they care about.
type MockFileSystem struct {
	AbsFn       func(path string) (string, error)
	StatFn      func(name string) (os.FileInfo, error)
	ReadFileFn  func(name string) ([]byte, error)
	ReadDirFn   func(name string) ([]os.DirEntry, error)
	WriteFileFn func(name string, data []byte, perm os.FileMode) error
	MkdirAllFn  func(path string, perm os.FileMode) error
	CreateFn    func(name string) (*os.File, error)
	OpenFn      func(name string) (*os.File, error)
}

var real OsFileSystem

// Abs calls AbsFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Abs(path string) (string, error) {
	if m.AbsFn != nil {
		return m.AbsFn(path)
	}
	return real.Abs(path)
}

// Stat calls StatFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.StatFn != nil {
		return m.StatFn(name)
	}
	return real.Stat(name)
}

// ReadFile calls ReadFileFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFn != nil {
		return m.ReadFileFn(name)
	}
	return real.ReadFile(name)
}

// ReadDir calls ReadDirFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	if m.ReadDirFn != nil {
		return m.ReadDirFn(name)
	}
	return real.ReadDir(name)
}

// WriteFile calls WriteFileFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.WriteFileFn != nil {
		return m.WriteFileFn(name, data, perm)
	}
	return real.WriteFile(name, data, perm)
}

// MkdirAll calls MkdirAllFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if m.MkdirAllFn != nil {
		return m.MkdirAllFn(path, perm)
	}
	return real.MkdirAll(path, perm)
}

// Create calls CreateFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Create(name string) (*os.File, error) {
	if m.CreateFn != nil {
		return m.CreateFn(name)
	}
	return real.Create(name)
}

// Open calls OpenFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Open(name string) (*os.File, error) {
	if m.OpenFn != nil {
		return m.OpenFn(name)
	}
	return real.Open(name)
}

// Compile-time interface check.
var _ FileSystem = (*MockFileSystem)(nil)
