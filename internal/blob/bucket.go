// Package blob stores uploaded photo files.
package blob

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
)

// ErrExists is returned when an object is written over an existing path
var ErrExists = errors.New("object already exists")

// ErrInvalidPath is returned for empty, absolute or escaping paths
var ErrInvalidPath = errors.New("invalid object path")

// Bucket is the object storage used for gallery photos. PublicURL never
// touches the network.
type Bucket interface {
	Put(ctx context.Context, objectPath, contentType string, r io.Reader) error
	PublicURL(objectPath string) string
	Delete(ctx context.Context, objectPath string) error
}

// cleanPath validates an object path and returns its canonical form
func cleanPath(objectPath string) (string, error) {
	if objectPath == "" || strings.HasPrefix(objectPath, "/") || strings.Contains(objectPath, `\`) {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(objectPath)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// escapePath escapes each segment of an object path for use in a URL
func escapePath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
