// Package snapshot implements the engine's persistence gateway: periodic
// load/save of ledger and pool state as opaque snapshot blobs.
// Implementations include a local file (atomic rename), PostgreSQL, and
// Redis. The engine treats all of them as an opaque durable store.
package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ringside/wager-engine/internal/engine"
	"github.com/ringside/wager-engine/internal/model"
)

// ErrNoSnapshot is returned by Load when the store holds no snapshot
// yet. Callers start from empty state.
var ErrNoSnapshot = errors.New("snapshot: no snapshot available")

// Store persists and retrieves engine snapshots.
type Store interface {
	// Save durably writes the snapshot, replacing any previous one.
	Save(ctx context.Context, snap *model.Snapshot) error

	// Load returns the most recent snapshot, or ErrNoSnapshot.
	Load(ctx context.Context) (*model.Snapshot, error)
}

// Runner saves engine snapshots on a fixed interval and once more on
// shutdown. It runs on its own schedule and never holds wager-path
// locks across I/O: the export copies state first, then the save writes
// the copy.
type Runner struct {
	eng      *engine.Engine
	store    Store
	interval time.Duration
}

// NewRunner creates a snapshot runner.
func NewRunner(eng *engine.Engine, store Store, interval time.Duration) *Runner {
	return &Runner{eng: eng, store: store, interval: interval}
}

// Run loops until ctx is cancelled, then writes a final snapshot with a
// fresh timeout so shutdown state is not lost. Transient save failures
// are logged and the loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.SaveNow(ctx); err != nil {
				slog.Warn("periodic snapshot failed", "err", err)
			}
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := r.SaveNow(final); err != nil {
				slog.Error("shutdown snapshot failed", "err", err)
				return err
			}
			slog.Info("shutdown snapshot written")
			return nil
		}
	}
}

// SaveNow exports the engine state and writes it to the store.
func (r *Runner) SaveNow(ctx context.Context) error {
	snap, err := r.eng.Export()
	if err != nil {
		return err
	}
	if err := r.store.Save(ctx, snap); err != nil {
		return err
	}
	slog.Debug("snapshot saved",
		"accounts", len(snap.Accounts),
		"pools", len(snap.Pools),
	)
	return nil
}

// Restore loads the latest snapshot into the engine. A missing snapshot
// is not an error; the engine simply starts empty.
func Restore(ctx context.Context, eng *engine.Engine, store Store) error {
	snap, err := store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		slog.Info("no snapshot found, starting empty")
		return nil
	}
	if err != nil {
		return err
	}
	if err := eng.Import(snap); err != nil {
		return err
	}
	slog.Info("state restored from snapshot",
		"accounts", len(snap.Accounts),
		"pools", len(snap.Pools),
		"saved_at", snap.SavedAt,
	)
	return nil
}
