package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedType indicates a file extension outside the image whitelist
var ErrUnsupportedType = errors.New("unsupported file type: allowed types are png, jpg, jpeg, gif")

// allowedExtensions is the upload whitelist
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Object describes a stored file
type Object struct {
	Name        string // generated file name
	Path        string // backend key used for deletion
	URL         string // public URL
	ContentType string
	Size        int64
}

// Store persists uploaded files
type Store interface {
	Save(ctx context.Context, originalName, contentType string, r io.Reader) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// AllowedExtension reports whether name has a whitelisted image extension
func AllowedExtension(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// ObjectName returns a uuid-prefixed name that keeps only the base of original
func ObjectName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s_%s", uuid.New().String(), base)
}

// LocalStore keeps files on the local filesystem and serves them under a URL prefix
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates the upload directory if needed
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Dir returns the directory files are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes r to a new file
func (s *LocalStore) Save(_ context.Context, originalName, contentType string, r io.Reader) (*Object, error) {
	if !AllowedExtension(originalName) {
		return nil, ErrUnsupportedType
	}

	name := ObjectName(originalName)
	fullPath := filepath.Join(s.dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &Object{
		Name:        name,
		Path:        fullPath,
		URL:         path.Join(s.urlPrefix, name),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
