// Package output manages the local directory pages and images are rendered into
// before upload.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ArxivDigest/internal/ports"
)

// ImagesDir is the subdirectory holding article photos, relative to the workspace.
const ImagesDir = "images"

// Workspace implements ports.Workspace on the local filesystem.
type Workspace struct {
	dir string
}

var _ ports.Workspace = (*Workspace)(nil)

// New creates dir and its images subdirectory when missing.
func New(dir string) (*Workspace, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, ImagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// WritePage stores a rendered page at the workspace root.
func (w *Workspace) WritePage(name string, content []byte) error {
	path, err := w.resolve(".", name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write page %s: %w", name, err)
	}
	return nil
}

// WriteImage stores a photo under images/.
func (w *Workspace) WriteImage(name string, data []byte) error {
	path, err := w.resolve(ImagesDir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create images directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image %s: %w", name, err)
	}
	return nil
}

// Clear removes the given pages and empties images/.
func (w *Workspace) Clear(pages []string) error {
	var errs []error
	for _, page := range pages {
		path, err := w.resolve(".", page)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove page %s: %w", page, err))
		}
	}

	images := filepath.Join(w.dir, ImagesDir)
	if err := os.RemoveAll(images); err != nil {
		errs = append(errs, fmt.Errorf("remove images: %w", err))
	}
	if err := os.MkdirAll(images, 0o755); err != nil {
		errs = append(errs, fmt.Errorf("recreate images: %w", err))
	}
	return errors.Join(errs...)
}

// resolve rejects names that would escape the target directory.
func (w *Workspace) resolve(sub, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(w.dir, sub, name), nil
}
