package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/pkg/models"
)

// FileStore keeps the collection in <dir>/depguardian_reports.json
type FileStore struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Storage("store.Open", fmt.Errorf("failed to create %s: %w", dir, err))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   filepath.Join(dir, Key+".json"),
		now:    time.Now,
		logger: logger,
	}, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(ctx context.Context) ([]models.StoredReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.read()
	if err != nil {
		return nil, errs.Storage("store.List", err)
	}
	return reports, nil
}

func (s *FileStore) Append(ctx context.Context, r models.StoredReport) (models.StoredReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.read()
	if err != nil {
		return models.StoredReport{}, errs.Storage("store.Append", err)
	}
	r = prepare(r, s.now)
	if err := s.write(append(reports, r)); err != nil {
		return models.StoredReport{}, errs.Storage("store.Append", err)
	}
	s.logger.Debug("report stored", "id", r.ID, "path", s.path)
	return r, nil
}

func (s *FileStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.read()
	if err != nil {
		return errs.Storage("store.Remove", err)
	}
	remaining, removed := without(reports, id)
	if !removed {
		return nil
	}
	if err := s.write(remaining); err != nil {
		return errs.Storage("store.Remove", err)
	}
	s.logger.Debug("report removed", "id", id)
	return nil
}

func (s *FileStore) read() ([]models.StoredReport, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.StoredReport{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return decode(data)
}

// write replaces the file atomically so a failed write leaves the old collection
func (s *FileStore) write(reports []models.StoredReport) error {
	data, err := encode(reports)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
