// Package blob stores plant images as opaque keyed objects and issues
// short-lived signed URLs for them.
package blob

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidKey is returned for keys that could escape the store.
	ErrInvalidKey = errors.New("invalid blob key")
)

// Info describes a stored object.
type Info struct {
	Key         string
	ContentType string
	Size        int64
}

// Store is a key/value object store.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (*Info, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *Info, error)
	Delete(ctx context.Context, key string) error
}

var keyRX = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidKey reports whether key is a flat object name safe to use as a file
// name or URL segment.
func ValidKey(key string) bool {
	return keyRX.MatchString(key) && !strings.Contains(key, "..")
}

// NewKey returns a fresh random key with an extension matching
// contentType, e.g. "3f1c...e2.png".
func NewKey(contentType string) string {
	return uuid.NewString() + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// contentTypeFor guesses a content type from the key's extension.
func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
