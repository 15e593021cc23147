// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
//
// The ledger's persistence contract is a full-state rewrite, so Save runs
// one transaction that clears and repopulates all four tables; SQLite's
// journal gives the crash safety the JSON backend gets from rename.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/hirorogo/fusaikanri/internal/models"
	"github.com/hirorogo/fusaikanri/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path. It creates
// the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the full ledger snapshot. Empty tables yield an empty snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := models.NewSnapshot()

	rows, err := s.db.QueryContext(ctx,
		"SELECT creditor, debtor, amount FROM debts")
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var creditor, debtor, amount int64
		if err := rows.Scan(&creditor, &debtor, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan debt edge: %w", err)
		}
		key := models.FormatID(creditor)
		if snap.Debts[key] == nil {
			snap.Debts[key] = make(map[string]int64)
		}
		snap.Debts[key][models.FormatID(debtor)] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	histRows, err := s.db.QueryContext(ctx,
		"SELECT id, action, creditor, debtor, amount, note, timestamp FROM history ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer histRows.Close()
	for histRows.Next() {
		var rec models.HistoryRecord
		var action string
		if err := histRows.Scan(&rec.ID, &action, &rec.Creditor, &rec.Debtor,
			&rec.Amount, &rec.Note, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		rec.Action = models.Action(action)
		snap.History = append(snap.History, rec)
	}
	if err := histRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	settingRows, err := s.db.QueryContext(ctx,
		"SELECT user_id, transfer_enabled FROM user_settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query user settings: %w", err)
	}
	defer settingRows.Close()
	for settingRows.Next() {
		var user int64
		var enabled bool
		if err := settingRows.Scan(&user, &enabled); err != nil {
			return nil, fmt.Errorf("failed to scan user settings: %w", err)
		}
		snap.UserSettings[models.FormatID(user)] = models.UserFlags{TransferEnabled: &enabled}
	}
	if err := settingRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user settings: %w", err)
	}

	channelRows, err := s.db.QueryContext(ctx,
		"SELECT guild_id, channel_id FROM log_channels")
	if err != nil {
		return nil, fmt.Errorf("failed to query log channels: %w", err)
	}
	defer channelRows.Close()
	for channelRows.Next() {
		var guild, channel int64
		if err := channelRows.Scan(&guild, &channel); err != nil {
			return nil, fmt.Errorf("failed to scan log channel: %w", err)
		}
		snap.LogChannels[models.FormatID(guild)] = channel
	}
	if err := channelRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate log channels: %w", err)
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger database: %w", err)
	}
	return snap, nil
}

// Save replaces the persisted state with the given snapshot inside a single
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"debts", "history", "user_settings", "log_channels"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for creditorKey, debtors := range snap.Debts {
		creditor, err := models.ParseID(creditorKey)
		if err != nil {
			return fmt.Errorf("bad creditor key %q: %w", creditorKey, err)
		}
		for debtorKey, amount := range debtors {
			debtor, err := models.ParseID(debtorKey)
			if err != nil {
				return fmt.Errorf("bad debtor key %q: %w", debtorKey, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO debts (creditor, debtor, amount) VALUES (?, ?, ?)",
				creditor, debtor, amount,
			); err != nil {
				return fmt.Errorf("failed to insert debt edge: %w", err)
			}
		}
	}

	for _, rec := range snap.History {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (id, action, creditor, debtor, amount, note, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, string(rec.Action), rec.Creditor, rec.Debtor, rec.Amount, rec.Note, rec.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to insert history record: %w", err)
		}
	}

	for userKey, flags := range snap.UserSettings {
		if flags.TransferEnabled == nil {
			continue
		}
		user, err := models.ParseID(userKey)
		if err != nil {
			return fmt.Errorf("bad user key %q: %w", userKey, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_settings (user_id, transfer_enabled) VALUES (?, ?)",
			user, *flags.TransferEnabled,
		); err != nil {
			return fmt.Errorf("failed to insert user settings: %w", err)
		}
	}

	for guildKey, channel := range snap.LogChannels {
		guild, err := models.ParseID(guildKey)
		if err != nil {
			return fmt.Errorf("bad guild key %q: %w", guildKey, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO log_channels (guild_id, channel_id) VALUES (?, ?)",
			guild, channel,
		); err != nil {
			return fmt.Errorf("failed to insert log channel: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
