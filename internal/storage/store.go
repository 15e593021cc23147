// Package storage provides abstractions for persistent ledger state.
package storage

import (
	"context"

	"github.com/hirorogo/fusaikanri/internal/models"
)

// Store defines the interface for ledger snapshot persistence. The ledger
// rewrites its full state on every mutation, so the contract is deliberately
// coarse: load everything, save everything. This abstraction allows swapping
// storage backends (JSON file, SQLite, ...) without changing the engine.
type Store interface {
	// Load reads the persisted snapshot. If no prior state exists it returns
	// an empty snapshot, not an error; a document that exists but fails to
	// parse or validate is an error.
	Load(ctx context.Context) (*models.Snapshot, error)

	// Save durably replaces the persisted state with the given snapshot.
	// It must not leave a corrupted or partial document behind on failure.
	Save(ctx context.Context, snap *models.Snapshot) error

	// Close releases any resources held by the store.
	Close() error
}
