package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringside/wager-engine/internal/model"
)

// PostgresStore persists snapshots as a single JSONB row, replaced on
// every save. The blob schema keeps the store opaque to the engine and
// forward-compatible across engine versions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed snapshot store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Init creates the snapshot table if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS engine_snapshots (
		     id       INT PRIMARY KEY,
		     data     JSONB NOT NULL,
		     saved_at TIMESTAMPTZ NOT NULL
		 )`)
	if err != nil {
		return fmt.Errorf("snapshot: init schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO engine_snapshots (id, data, saved_at)
		 VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = $1, saved_at = $2`,
		data, snap.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("snapshot: save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*model.Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM engine_snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return &snap, nil
}
