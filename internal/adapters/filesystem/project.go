// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/example/stackup/internal/errors"
	"github.com/example/stackup/internal/ports/secondary"
)

// ProjectFS implements secondary.ProjectFS rooted at a project directory.
type ProjectFS struct {
	root string
}

// NewProjectFS creates a ProjectFS rooted at root, which must be a directory.
func NewProjectFS(root string) (*ProjectFS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}
	return &ProjectFS{root: abs}, nil
}

// Root returns the absolute project root.
func (p *ProjectFS) Root() string {
	return p.root
}

// resolve maps a project-relative path to an absolute one inside the root.
func (p *ProjectFS) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", apperrors.Newf(apperrors.CodeArtifactIO, "path %q must be relative to the project root", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", apperrors.Newf(apperrors.CodeArtifactIO, "path %q escapes the project root", rel)
	}
	return filepath.Join(p.root, clean), nil
}

// ReadFile returns the file content and whether it exists.
func (p *ProjectFS) ReadFile(ctx context.Context, rel string) ([]byte, bool, error) {
	path, err := p.resolve(rel)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.CodeArtifactIO, "read "+rel)
	}
	return data, true, nil
}

// WriteFile atomically replaces rel, creating parent directories.
func (p *ProjectFS) WriteFile(ctx context.Context, rel string, data []byte, perm os.FileMode) error {
	path, err := p.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeArtifactIO, "create parent of "+rel)
	}
	if err := WriteFileAtomic(path, data, perm); err != nil {
		return apperrors.Wrap(err, apperrors.CodeArtifactIO, "write "+rel)
	}
	return nil
}

// MkdirAll creates a directory with all parent directories.
func (p *ProjectFS) MkdirAll(ctx context.Context, rel string) error {
	path, err := p.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeArtifactIO, "create directory "+rel)
	}
	return nil
}

// WriteFileAtomic writes data to path using a temp file + rename.
// The temp file is created in the same directory as path so the rename is
// atomic on POSIX. On failure the original file (if any) is left unchanged.
// The caller must ensure the parent directory exists.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".stackup-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}

// Ensure ProjectFS implements the interface
var _ secondary.ProjectFS = (*ProjectFS)(nil)
