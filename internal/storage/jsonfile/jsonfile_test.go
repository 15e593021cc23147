package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hirorogo/fusaikanri/internal/models"
)

func testSnapshot() *models.Snapshot {
	enabled := true
	snap := models.NewSnapshot()
	snap.Debts["100"] = map[string]int64{"200": 500, "300": 150}
	snap.Debts["300"] = map[string]int64{"200": 700}
	snap.History = []models.HistoryRecord{
		{
			ID:        "11111111-1111-1111-1111-111111111111",
			Action:    models.ActionAdd,
			Creditor:  100,
			Debtor:    200,
			Amount:    500,
			Note:      "lunch",
			Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        "22222222-2222-2222-2222-222222222222",
			Action:    models.ActionTransfer,
			Creditor:  100,
			Debtor:    200,
			Amount:    150,
			Note:      "to:300",
			Timestamp: time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC),
		},
	}
	snap.UserSettings["100"] = models.UserFlags{TransferEnabled: &enabled}
	snap.LogChannels["900"] = 901
	return snap
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load missing file yields empty snapshot", func(t *testing.T) {
		store, err := New(filepath.Join(t.TempDir(), "debts.json"))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(snap.Debts) != 0 || len(snap.History) != 0 {
			t.Errorf("expected empty snapshot, got %+v", snap)
		}
	})

	t.Run("save then load round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "debts.json")
		store, err := New(path)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		want := testSnapshot()
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Debts["100"]["200"] != 500 || got.Debts["300"]["200"] != 700 {
			t.Errorf("debts mismatch: %+v", got.Debts)
		}
		if len(got.History) != 2 {
			t.Fatalf("history length = %d, want 2", len(got.History))
		}
		if got.History[0] != want.History[0] || got.History[1] != want.History[1] {
			t.Errorf("history mismatch: %+v", got.History)
		}
		flags := got.UserSettings["100"]
		if flags.TransferEnabled == nil || !*flags.TransferEnabled {
			t.Errorf("user settings mismatch: %+v", got.UserSettings)
		}
		if got.LogChannels["900"] != 901 {
			t.Errorf("log channels mismatch: %+v", got.LogChannels)
		}
	})

	t.Run("save leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		store, err := New(filepath.Join(dir, "debts.json"))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		for i := 0; i < 3; i++ {
			if err := store.Save(ctx, testSnapshot()); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		for _, entry := range entries {
			if strings.Contains(entry.Name(), ".tmp-") {
				t.Errorf("temp file left behind: %s", entry.Name())
			}
		}
		if len(entries) != 1 {
			t.Errorf("expected only the ledger file, got %d entries", len(entries))
		}
	})

	t.Run("corrupted file is an error, not a reset", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "debts.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		store, err := New(path)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, err := store.Load(ctx); err == nil {
			t.Fatal("expected Load to fail on corrupted file")
		}
	})

	t.Run("invalid document is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "debts.json")
		raw := `{"debts": {"100": {"200": -5}}, "history": [], "user_settings": {}, "log_channels": {}}`
		if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		store, err := New(path)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, err := store.Load(ctx); err == nil {
			t.Fatal("expected Load to reject negative edge amount")
		}
	})
}
