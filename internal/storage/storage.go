package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// SavedFile describes a stored attachment blob.
type SavedFile struct {
	StoredName string
	Path       string
	Size       int64
}

// Storage persists attachment payloads outside the database.
type Storage interface {
	Save(ticketID int64, originalName string, r io.Reader) (*SavedFile, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// localStorage writes files under a base directory, one folder per ticket.
type localStorage struct {
	baseDir  string
	maxBytes int64
}

// NewLocalStorage creates a disk-backed storage rooted at baseDir.
func NewLocalStorage(baseDir string, maxMB int) (Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &localStorage{baseDir: baseDir, maxBytes: int64(maxMB) * 1024 * 1024}, nil
}

func (s *localStorage) Save(ticketID int64, originalName string, r io.Reader) (*SavedFile, error) {
	ext := filepath.Ext(originalName)
	storedName := uuid.NewString() + strings.ToLower(ext)

	dir := filepath.Join(s.baseDir, fmt.Sprintf("%d", ticketID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ticket dir: %w", err)
	}

	path := filepath.Join(dir, storedName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	// LimitReader with one spare byte lets us detect oversize uploads.
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write attachment file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(path)
		return nil, apperrors.NewValidationError("file exceeds maximum attachment size", nil)
	}

	return &SavedFile{StoredName: storedName, Path: path, Size: written}, nil
}

func (s *localStorage) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound("attachment file", nil)
		}
		return nil, fmt.Errorf("open attachment file: %w", err)
	}
	return f, nil
}

func (s *localStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment file: %w", err)
	}
	return nil
}
