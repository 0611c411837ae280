package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"hanzidrill/internal/logger"
	"hanzidrill/internal/models"
	"hanzidrill/internal/persistence"
	"hanzidrill/internal/storage"
)

// ErrNothingToExport is returned when the storage key holds no snapshot
var ErrNothingToExport = errors.New("no saved state to export")

// BackupService copies the stored snapshot to and from files. Backup files
// use the same JSON layout as the stored value.
type BackupService struct {
	kv  storage.KV
	key string
	log *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(kv storage.KV, key string, log *zap.Logger) *BackupService {
	return &BackupService{kv: kv, key: key, log: logger.OrNop(log).Named("backup")}
}

// Export writes the stored snapshot to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) (*models.Snapshot, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNothingToExport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read saved state: %w", err)
	}

	snap, err := persistence.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("saved state is corrupt: %w", err)
	}
	data, err := persistence.Encode(snap)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	s.log.Info("exported state",
		zap.String("file", outputPath),
		zap.Int("history", len(snap.History)),
		zap.Int("sessions", len(snap.Sessions)))
	return snap, nil
}

// Import replaces the stored snapshot with the one in inputPath. The file is
// decoded first so a corrupt backup never reaches storage.
func (s *BackupService) Import(ctx context.Context, inputPath string) (*models.Snapshot, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	snap, err := persistence.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid backup file: %w", err)
	}
	encoded, err := persistence.Encode(snap)
	if err != nil {
		return nil, err
	}

	if err := s.kv.Set(ctx, s.key, string(encoded)); err != nil {
		return nil, fmt.Errorf("failed to write state: %w", err)
	}

	s.log.Info("imported state",
		zap.String("file", inputPath),
		zap.Int("history", len(snap.History)),
		zap.Int("sessions", len(snap.Sessions)))
	return snap, nil
}

// Clear deletes the stored snapshot. The next start uses defaults.
func (s *BackupService) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	s.log.Info("cleared saved state")
	return nil
}
