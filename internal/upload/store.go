package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// MaxUploadBytes caps a single upload at 10 MiB, enough for scanned
// answer sheets.
const MaxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// DiskStore writes uploads to a local directory and hands back stable
// URL-style references. The reference, not the bytes, is what the domain
// records carry.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save stores the file under a fresh name and returns its reference URL.
// The original filename only contributes its extension.
func (s *DiskStore) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	n, err := io.Copy(dst, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > MaxUploadBytes {
		_ = os.Remove(dst.Name())
		return "", ErrTooLarge
	}
	return s.baseURL + "/" + name, nil
}

// Dir is the directory the router serves as static files.
func (s *DiskStore) Dir() string { return s.dir }

// Remove deletes a previously saved upload by its reference URL.
func (s *DiskStore) Remove(ref string) error {
	if strings.Contains(ref, "..") {
		return fmt.Errorf("invalid upload reference %q", ref)
	}
	name := path.Base(ref)
	if name == "." || name == "/" {
		return fmt.Errorf("invalid upload reference %q", ref)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
