package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hirorogo/fusaikanri/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "debts.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load of fresh database yields empty snapshot", func(t *testing.T) {
		store := newTestStore(t)
		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(snap.Debts) != 0 || len(snap.History) != 0 ||
			len(snap.UserSettings) != 0 || len(snap.LogChannels) != 0 {
			t.Errorf("expected empty snapshot, got %+v", snap)
		}
	})

	t.Run("save then load round trip", func(t *testing.T) {
		store := newTestStore(t)

		enabled := true
		disabled := false
		want := models.NewSnapshot()
		want.Debts["100"] = map[string]int64{"200": 500}
		want.Debts["300"] = map[string]int64{"200": 700, "100": 50}
		want.History = []models.HistoryRecord{
			{
				ID:        "11111111-1111-1111-1111-111111111111",
				Action:    models.ActionAdd,
				Creditor:  100,
				Debtor:    200,
				Amount:    500,
				Note:      "dinner",
				Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			},
			{
				ID:        "22222222-2222-2222-2222-222222222222",
				Action:    models.ActionPayOnBehalf,
				Creditor:  100,
				Debtor:    200,
				Amount:    200,
				Note:      "payer:300",
				Timestamp: time.Date(2024, 5, 3, 8, 15, 0, 0, time.UTC),
			},
		}
		want.UserSettings["100"] = models.UserFlags{TransferEnabled: &enabled}
		want.UserSettings["200"] = models.UserFlags{TransferEnabled: &disabled}
		want.LogChannels["900"] = 901

		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if got.Debts["100"]["200"] != 500 || got.Debts["300"]["200"] != 700 || got.Debts["300"]["100"] != 50 {
			t.Errorf("debts mismatch: %+v", got.Debts)
		}
		if len(got.History) != 2 {
			t.Fatalf("history length = %d, want 2", len(got.History))
		}
		for i, wantRec := range want.History {
			gotRec := got.History[i]
			if gotRec.ID != wantRec.ID || gotRec.Action != wantRec.Action ||
				gotRec.Creditor != wantRec.Creditor || gotRec.Debtor != wantRec.Debtor ||
				gotRec.Amount != wantRec.Amount || gotRec.Note != wantRec.Note {
				t.Errorf("history[%d] = %+v, want %+v", i, gotRec, wantRec)
			}
			if !gotRec.Timestamp.Equal(wantRec.Timestamp) {
				t.Errorf("history[%d] timestamp = %v, want %v", i, gotRec.Timestamp, wantRec.Timestamp)
			}
		}
		if flags := got.UserSettings["100"]; flags.TransferEnabled == nil || !*flags.TransferEnabled {
			t.Errorf("user 100 flags mismatch: %+v", flags)
		}
		if flags := got.UserSettings["200"]; flags.TransferEnabled == nil || *flags.TransferEnabled {
			t.Errorf("user 200 flags mismatch: %+v", flags)
		}
		if got.LogChannels["900"] != 901 {
			t.Errorf("log channels mismatch: %+v", got.LogChannels)
		}
	})

	t.Run("save replaces prior state completely", func(t *testing.T) {
		store := newTestStore(t)

		first := models.NewSnapshot()
		first.Debts["100"] = map[string]int64{"200": 500}
		first.History = []models.HistoryRecord{{
			ID: "a", Action: models.ActionAdd, Creditor: 100, Debtor: 200,
			Amount: 500, Timestamp: time.Now().UTC(),
		}}
		if err := store.Save(ctx, first); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		second := models.NewSnapshot()
		second.Debts["300"] = map[string]int64{"400": 25}
		if err := store.Save(ctx, second); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if _, ok := got.Debts["100"]; ok {
			t.Error("old edge survived the rewrite")
		}
		if got.Debts["300"]["400"] != 25 {
			t.Errorf("debts mismatch: %+v", got.Debts)
		}
		if len(got.History) != 0 {
			t.Errorf("history length = %d, want 0", len(got.History))
		}
	})
}
