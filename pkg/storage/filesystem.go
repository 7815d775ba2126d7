package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload validation failures.
var (
	ErrFileTooLarge     = errors.New("file exceeds maximum size")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrInvalidPath      = errors.New("invalid storage path")
)

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// LocalStorage persists uploaded files on disk under a base directory.
type LocalStorage struct {
	baseDir      string
	maxSize      int64
	allowedMIMEs map[string]bool
	now          func() time.Time
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string, maxSize int64, allowedMIMEs []string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	allowed := make(map[string]bool, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		allowed[strings.ToLower(m)] = true
	}
	return &LocalStorage{baseDir: baseDir, maxSize: maxSize, allowedMIMEs: allowed, now: time.Now}, nil
}

// Validate checks an upload's declared type and size before it is read.
func (s *LocalStorage) Validate(contentType string, size int64) error {
	if s.maxSize > 0 && size > s.maxSize {
		return ErrFileTooLarge
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if len(s.allowedMIMEs) > 0 && !s.allowedMIMEs[ct] {
		return ErrUnsupportedMedia
	}
	return nil
}

// SaveUpload stores r under folder/YYYY/MM with a random name and returns the
// relative path. At most maxSize bytes are accepted.
func (s *LocalStorage) SaveUpload(folder, originalName, contentType string, r io.Reader) (string, error) {
	ext := mimeExtensions[strings.ToLower(contentType)]
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(originalName))
	}
	now := s.now().UTC()
	rel := path.Join(folder, now.Format("2006"), now.Format("01"), uuid.NewString()+ext)

	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(file, src)
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if s.maxSize > 0 && n > s.maxSize {
		_ = os.Remove(full)
		return "", ErrFileTooLarge
	}
	return rel, nil
}

// Open returns a read-only handle for a stored file.
func (s *LocalStorage) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// resolve maps a relative path into baseDir, refusing anything that escapes it.
func (s *LocalStorage) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.baseDir, clean), nil
}
