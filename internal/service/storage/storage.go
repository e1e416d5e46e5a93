package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"productvision/internal/logger"

	"github.com/google/uuid"
)

// ErrNotFound is returned for result ids that were never stored.
var ErrNotFound = errors.New("result not found")

// ResultStore keeps annotated result images as result_<id>.png in one directory.
type ResultStore struct {
	dir    string
	logger *logger.Logger
}

// NewResultStore creates the directory if needed.
func NewResultStore(dir string, logger *logger.Logger) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create result directory: %w", err)
	}
	return &ResultStore{dir: dir, logger: logger}, nil
}

// Save writes a PNG result and returns its id.
func (s *ResultStore) Save(data []byte) (string, error) {
	id := uuid.NewString()
	path := s.path(id)

	if err := os.WriteFile(path, data, 0644); err != nil {
		s.logger.Error("Error saving result %s: %v", id, err)
		return "", fmt.Errorf("failed to save result: %w", err)
	}

	s.logger.Info("Saved result %s (%d bytes)", id, len(data))
	return id, nil
}

// Open returns the stored result for id. Ids that are not UUIDs are never looked up on disk.
func (s *ResultStore) Open(id string) (*os.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open result %s: %w", id, err)
	}
	return f, nil
}

func (s *ResultStore) path(id string) string {
	return filepath.Join(s.dir, ResultFilename(id))
}

// ResultFilename is the on-disk and download name of a result.
func ResultFilename(id string) string {
	return "result_" + id + ".png"
}

// UploadStore holds raw uploads while a request is processed.
type UploadStore struct {
	dir    string
	logger *logger.Logger
}

// NewUploadStore creates the directory if needed.
func NewUploadStore(dir string, logger *logger.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadStore{dir: dir, logger: logger}, nil
}

// Save writes data as upload_<uuid><ext> and returns the full path.
func (s *UploadStore) Save(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, "upload_"+uuid.NewString()+ext)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// Remove deletes a saved upload, logging instead of failing.
func (s *UploadStore) Remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warning("Error removing upload %s: %v", path, err)
	}
}
