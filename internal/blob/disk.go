package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time interface guard.
var _ Store = (*DiskStore)(nil)

// DiskStore keeps objects as files in a single directory. The content type
// is derived from the key's extension.
type DiskStore struct {
	root string
}

// NewDiskStore creates root if needed and returns a store rooted there.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %q: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

// Put writes r to a temporary file and renames it into place, so readers
// never observe a partial object.
func (d *DiskStore) Put(ctx context.Context, key, contentType string, r io.Reader) (*Info, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close blob %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.root, key)); err != nil {
		return nil, fmt.Errorf("commit blob %q: %w", key, err)
	}

	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	return &Info{Key: key, ContentType: contentType, Size: n}, nil
}

func (d *DiskStore) Get(ctx context.Context, key string) (io.ReadCloser, *Info, error) {
	if !ValidKey(key) {
		return nil, nil, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(d.root, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open blob %q: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat blob %q: %w", key, err)
	}
	return f, &Info{Key: key, ContentType: contentTypeFor(key), Size: st.Size()}, nil
}

func (d *DiskStore) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(d.root, key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
