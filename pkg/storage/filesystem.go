package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned when an upload is not one of the accepted image types.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("file too large")

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalStorage persists uploaded images on disk under a base directory and exposes them
// under a public URL prefix.
type LocalStorage struct {
	baseDir    string
	publicPath string
	maxBytes   int64
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicPath string, maxBytes int64) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicPath: "/" + strings.Trim(publicPath, "/"), maxBytes: maxBytes}, nil
}

// SaveImage sniffs the content, rejects non-images, and stores it under folder with a
// generated name. The returned string is the public URL path of the stored file.
func (s *LocalStorage) SaveImage(folder string, r io.Reader) (string, error) {
	limit := s.maxBytes
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	ext, ok := imageTypes[mt.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	name := path.Join(folder, uuid.NewString()+ext)
	if err := s.save(name, data); err != nil {
		return "", err
	}
	return path.Join(s.publicPath, name), nil
}

func (s *LocalStorage) save(name string, data []byte) error {
	target := s.resolve(name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	return nil
}

// Delete removes a file previously returned by SaveImage. Unknown or foreign URLs are ignored.
func (s *LocalStorage) Delete(publicURL string) error {
	prefix := s.publicPath + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return nil
	}
	rel := strings.TrimPrefix(publicURL, prefix)
	if strings.Contains(rel, "..") {
		return nil
	}
	if err := os.Remove(s.resolve(rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// Dir is the directory served under PublicPath.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// PublicPath is the URL prefix for stored files.
func (s *LocalStorage) PublicPath() string {
	return s.publicPath
}

func (s *LocalStorage) resolve(name string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(name))
}
