package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem stores objects as files below a root directory. The app serves
// the directory statically at BaseURL.
type FileSystem struct {
	root    string
	baseURL string
}

// NewFileSystem creates the root directory if needed.
func NewFileSystem(root, baseURL string) (*FileSystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("objstore: create %s: %w", root, err)
	}
	return &FileSystem{root: root, baseURL: baseURL}, nil
}

// Root returns the directory objects are written to.
func (f *FileSystem) Root() string {
	return f.root
}

// Put writes r to key. Without Upsert the file is created exclusively.
func (f *FileSystem) Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("objstore: create dir: %w", err)
	}

	if !opts.Upsert {
		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				return ErrExists
			}
			return fmt.Errorf("objstore: create %s: %w", key, err)
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			os.Remove(path)
			return fmt.Errorf("objstore: write %s: %w", key, err)
		}
		return out.Close()
	}

	// Write to a temp file and rename so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("objstore: temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("objstore: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// PublicURL returns baseURL/key.
func (f *FileSystem) PublicURL(key string) string {
	return joinURL(f.baseURL, key)
}

func (f *FileSystem) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("objstore: invalid key %q", key)
	}
	return filepath.Join(f.root, filepath.FromSlash(clean)), nil
}
