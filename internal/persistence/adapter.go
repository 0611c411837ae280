// Package persistence writes the review snapshot to a single storage key.
// Storage failures are logged and swallowed; the in-memory state stays
// authoritative for the running session.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hanzidrill/internal/logger"
	"hanzidrill/internal/models"
	"hanzidrill/internal/session"
	"hanzidrill/internal/storage"
)

// Subscriber publishes state changes. *session.Tracker satisfies it.
type Subscriber interface {
	Subscribe(fn func(session.Change)) func()
}

type Adapter struct {
	kv  storage.KV
	key string
	log *zap.Logger

	mu          sync.Mutex
	lastVersion uint64
}

func New(kv storage.KV, key string, log *zap.Logger) *Adapter {
	return &Adapter{
		kv:  kv,
		key: key,
		log: logger.OrNop(log).Named("persistence").With(zap.String("key", key)),
	}
}

// Encode serializes a snapshot in the stored wire format
func Encode(snap *models.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, errors.New("nil snapshot")
	}
	return json.Marshal(snap)
}

// Decode parses a stored snapshot, filling in absent containers
func Decode(data []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap.Clone(), nil
}

// Load reads the snapshot. It returns nil when the key is missing or its
// contents cannot be decoded; callers fall back to defaults.
func (a *Adapter) Load(ctx context.Context) *models.Snapshot {
	raw, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, storage.ErrNotFound) {
		a.log.Info("no saved state, starting fresh")
		return nil
	}
	if err != nil {
		a.log.Warn("failed to read saved state", zap.Error(err))
		return nil
	}

	snap, err := Decode([]byte(raw))
	if err != nil {
		a.log.Warn("discarding corrupt saved state", zap.Error(err))
		return nil
	}

	a.log.Debug("loaded saved state",
		zap.Int("history", len(snap.History)),
		zap.Int("sentences", len(snap.Sentences)),
		zap.Int("sessions", len(snap.Sessions)))
	return snap
}

// Save writes the snapshot synchronously. Failures are logged, not returned
// and not retried.
func (a *Adapter) Save(ctx context.Context, snap *models.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.save(ctx, snap)
}

func (a *Adapter) save(ctx context.Context, snap *models.Snapshot) {
	data, err := Encode(snap)
	if err != nil {
		a.log.Error("failed to encode state", zap.Error(err))
		return
	}
	if err := a.kv.Set(ctx, a.key, string(data)); err != nil {
		a.log.Warn("failed to save state", zap.Error(err))
	}
}

// Attach saves after every change src publishes. Changes older than the last
// one written are dropped, so a late delivery never overwrites newer state.
func (a *Adapter) Attach(ctx context.Context, src Subscriber) func() {
	return src.Subscribe(func(ch session.Change) {
		a.mu.Lock()
		defer a.mu.Unlock()

		if ch.Version <= a.lastVersion {
			return
		}
		a.lastVersion = ch.Version
		a.save(ctx, ch.Snapshot)
	})
}
