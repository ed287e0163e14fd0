// Package workspace manages per-request working directories and their
// background eviction.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/papersynth/papersynth/pkg/errors"
)

// Manager creates and resolves per-request workspaces under a single root.
type Manager struct {
	root string
}

// NewManager ensures the root directory exists and returns a manager for it.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the directory all workspaces live under.
func (m *Manager) Root() string {
	return m.root
}

// Create makes a fresh workspace directory for a request.
func (m *Manager) Create(id string) (*Workspace, error) {
	if !ValidID(id) {
		return nil, apperrors.ErrPayloadInvalid("invalid request id")
	}
	dir := filepath.Join(m.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", id, err)
	}
	return &Workspace{id: id, dir: dir}, nil
}

// Open resolves an existing workspace. It returns a not-found error when the
// directory does not exist or the id is malformed.
func (m *Manager) Open(id string) (*Workspace, error) {
	if !ValidID(id) {
		return nil, apperrors.ErrNotFound("unknown request id")
	}
	dir := filepath.Join(m.root, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, apperrors.ErrNotFound("unknown request id")
	}
	return &Workspace{id: id, dir: dir}, nil
}

// Workspace is one request's working directory.
type Workspace struct {
	id  string
	dir string
}

// ID returns the request id the workspace belongs to.
func (w *Workspace) ID() string {
	return w.id
}

// Dir returns the workspace directory on disk.
func (w *Workspace) Dir() string {
	return w.dir
}

// ArtifactPath resolves a file name inside the workspace. The name must be a
// bare file name; anything resembling a path is rejected.
func (w *Workspace) ArtifactPath(name string) (string, error) {
	if !SafeFileName(name) {
		return "", apperrors.ErrPayloadInvalid("invalid file name")
	}
	return filepath.Join(w.dir, name), nil
}

// Has reports whether the named artifact exists as a regular file.
func (w *Workspace) Has(name string) bool {
	p, err := w.ArtifactPath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// WriteArtifact streams content into the named artifact.
func (w *Workspace) WriteArtifact(name string, r io.Reader) (int64, error) {
	p, err := w.ArtifactPath(name)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("create artifact %s: %w", name, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write artifact %s: %w", name, err)
	}
	return n, nil
}

// Remove deletes the workspace directory and everything in it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.dir)
}

// Size returns the total size in bytes of all files under the workspace.
func (w *Workspace) Size() (int64, error) {
	return dirSize(w.dir)
}

// SafeFileName reports whether name is a plain file name with no path
// traversal potential.
func SafeFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return true
}

// ValidID reports whether id can be used as a workspace directory name.
func ValidID(id string) bool {
	return SafeFileName(id)
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			// File vanished mid-walk, likely a concurrent removal.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
