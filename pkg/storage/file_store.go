package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FilePhotoStore writes photos to a local directory. A fallback for
// deployments without object storage; photos are served from baseURL by a
// plain file server.
type FilePhotoStore struct {
	root    string
	baseURL string
}

// NewFilePhotoStore ensures the root directory exists.
func NewFilePhotoStore(root, baseURL string) (*FilePhotoStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &FilePhotoStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (f *FilePhotoStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid photo key %q", key)
	}
	return filepath.Join(f.root, clean), nil
}

// Put writes the photo to disk.
func (f *FilePhotoStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create photo dir: %w", err)
	}
	file, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create photo file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}

// PresignGet returns a public URL under baseURL. Local files are not
// actually signed.
func (f *FilePhotoStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	p, err := f.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("photo %q not found", key)
	}
	escaped := (&url.URL{Path: "/" + key}).EscapedPath()
	return f.baseURL + escaped, nil
}

// Delete removes the photo file.
func (f *FilePhotoStore) Delete(ctx context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

var _ PhotoStore = (*FilePhotoStore)(nil)
