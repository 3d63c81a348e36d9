package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirBucket keeps objects on the local filesystem. The HTTP layer serves the
// directory under BaseURL.
type DirBucket struct {
	root    string
	baseURL string
}

// NewDirBucket creates the root directory if needed
func NewDirBucket(root, baseURL string) (*DirBucket, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &DirBucket{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the directory objects are written to
func (b *DirBucket) Root() string {
	return b.root
}

// Put writes a new object. Existing objects are never overwritten.
func (b *DirBucket) Put(ctx context.Context, objectPath, contentType string, r io.Reader) error {
	cleaned, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(b.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("failed to create object: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("failed to write object: %w", err)
	}
	return f.Close()
}

// PublicURL returns the URL the object is served under
func (b *DirBucket) PublicURL(objectPath string) string {
	return b.baseURL + "/" + escapePath(objectPath)
}

// Delete removes an object. Missing objects are not an error.
func (b *DirBucket) Delete(ctx context.Context, objectPath string) error {
	cleaned, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(b.root, filepath.FromSlash(cleaned)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
