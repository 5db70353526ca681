package testable

import (
	"errors"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// ErrNoRepository is returned by RepoLocator when path is not inside a git
// work tree.
var ErrNoRepository = errors.New("not inside a git repository")

// RepoLocator finds the work-tree root of the git repository enclosing a
// path. Production code uses GoGitLocator; tests inject a stub.
type RepoLocator interface {
	RepoRoot(path string) (string, error)
}

// GoGitLocator resolves repository roots with go-git, walking parent
// directories until a .git entry is found.
type GoGitLocator struct{}

// RepoRoot opens the repository enclosing path and returns its work-tree root.
func (GoGitLocator) RepoRoot(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", ErrNoRepository
		}
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no work tree to scope against.
		return "", ErrNoRepository
	}
	return filepath.Clean(wt.Filesystem.Root()), nil
}

// StubLocator returns fixed answers. Roots maps an input path to its root;
// unmapped paths yield ErrNoRepository.
type StubLocator struct {
	Roots map[string]string
}

// RepoRoot looks path up in Roots.
func (s StubLocator) RepoRoot(path string) (string, error) {
	if root, ok := s.Roots[path]; ok {
		return root, nil
	}
	return "", ErrNoRepository
}

// DefaultLocator is the production RepoLocator.
var DefaultLocator RepoLocator = GoGitLocator{}
