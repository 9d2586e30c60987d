// Package upload abstracts the file-storage provider behind a small
// collaborator interface. The service layer treats upload as opaque: bytes
// in, URL and storage key out.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Result identifies a stored file.
type Result struct {
	URL        string
	StorageKey string
}

// Uploader stores attachment bytes and returns where they live. Delete is
// the compensating action when the subsequent database write fails.
type Uploader interface {
	Upload(ctx context.Context, originalName string, data []byte) (*Result, error)
	Delete(ctx context.Context, storageKey string) error
}

// DiskUploader stores files in a local directory, keyed by a generated
// UUID so original names never collide.
type DiskUploader struct {
	dir     string
	baseURL string
}

// NewDiskUploader creates the upload directory if needed.
func NewDiskUploader(dir, baseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskUploader{dir: dir, baseURL: baseURL}, nil
}

// Upload writes data under a UUID-prefixed name derived from originalName.
func (u *DiskUploader) Upload(_ context.Context, originalName string, data []byte) (*Result, error) {
	key := uuid.New().String() + filepath.Ext(originalName)
	path := filepath.Join(u.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &Result{
		URL:        u.baseURL + "/" + key,
		StorageKey: key,
	}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (u *DiskUploader) Delete(_ context.Context, storageKey string) error {
	err := os.Remove(filepath.Join(u.dir, storageKey))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}
