package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/models"
)

// FileStore owns the data directory: raw uploads and the canonical file.
type FileStore struct {
	dataDir       string
	uploadDir     string
	canonicalPath string
}

func NewFileStore(dataDir, uploadDir, canonicalName string) (*FileStore, error) {
	if canonicalName == "" || filepath.Base(canonicalName) != canonicalName {
		return nil, fmt.Errorf("invalid canonical file name %q", canonicalName)
	}
	for _, dir := range []string{dataDir, uploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &FileStore{
		dataDir:       dataDir,
		uploadDir:     uploadDir,
		canonicalPath: filepath.Join(dataDir, canonicalName),
	}, nil
}

func (s *FileStore) CanonicalPath() string {
	return s.canonicalPath
}

// SaveUpload stores the uploaded content under a fresh unique name. Only the
// lower-cased extension of originalName is kept, so the loader can still pick
// the format.
func (s *FileStore) SaveUpload(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	path := filepath.Join(s.uploadDir, uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	logger.L.Info("Stored upload", "originalName", originalName, "path", path, "bytes", n)
	return path, nil
}

// RemoveUpload deletes a raw upload once it has been normalized. Paths outside
// the upload directory are refused.
func (s *FileStore) RemoveUpload(path string) error {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(s.uploadDir) {
		return fmt.Errorf("refusing to remove %s: not an upload", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload file: %w", err)
	}
	return nil
}

// PersistCanonical replaces the canonical file with records. Readers never
// observe a partially written file.
func (s *FileStore) PersistCanonical(records models.RecordSet) error {
	tmp, err := os.CreateTemp(s.dataDir, ".canonical-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err = WriteCanonical(tmp, records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write canonical file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync canonical file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close canonical file: %w", err)
	}
	if err = os.Rename(tmpPath, s.canonicalPath); err != nil {
		return fmt.Errorf("failed to replace canonical file: %w", err)
	}

	logger.L.Info("Persisted canonical file", "path", s.canonicalPath, "records", len(records))
	return nil
}

// EnsureCanonical writes the sample portfolio when no canonical file exists yet.
func (s *FileStore) EnsureCanonical() (bool, error) {
	_, err := os.Stat(s.canonicalPath)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat canonical file: %w", err)
	}

	if err := s.PersistCanonical(SampleRecords()); err != nil {
		return false, err
	}
	logger.L.Info("Seeded canonical file with sample portfolio", "path", s.canonicalPath)
	return true, nil
}
