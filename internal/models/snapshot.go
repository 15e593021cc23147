package models

import (
	"fmt"
	"strconv"
)

// UserFlags holds per-user feature flags.
type UserFlags struct {
	// TransferEnabled is the user's debt-transfer opt-in. Nil means the user
	// never set it and the process-wide default applies.
	TransferEnabled *bool `json:"transfer_enabled,omitempty"`
}

// Snapshot is the complete ledger state as persisted: a single structured
// document with four top-level mappings. Map keys are decimal snowflake IDs.
//
// This is the only shape that crosses the storage boundary; the engine
// converts it to and from its in-memory representation on load and save.
type Snapshot struct {
	// Debts maps creditor -> debtor -> amount owed. Amounts are positive;
	// a fully repaid edge is absent, not zero.
	Debts map[string]map[string]int64 `json:"debts"`

	// History is the append-only audit log in insertion order.
	History []HistoryRecord `json:"history"`

	// UserSettings maps user -> flags.
	UserSettings map[string]UserFlags `json:"user_settings"`

	// LogChannels maps guild -> notification channel. The ledger stores the
	// binding for the host's notification layer and assigns it no meaning.
	LogChannels map[string]int64 `json:"log_channels"`
}

// NewSnapshot returns an empty snapshot with all mappings allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Debts:        make(map[string]map[string]int64),
		History:      []HistoryRecord{},
		UserSettings: make(map[string]UserFlags),
		LogChannels:  make(map[string]int64),
	}
}

// Validate checks that the snapshot satisfies ledger invariants: every map
// key parses as a 64-bit ID, every edge amount is positive, no edge is
// self-referential, and every history record carries a known action.
func (s *Snapshot) Validate() error {
	for creditorKey, debtors := range s.Debts {
		creditor, err := ParseID(creditorKey)
		if err != nil {
			return fmt.Errorf("debts: bad creditor key %q: %w", creditorKey, err)
		}
		for debtorKey, amount := range debtors {
			debtor, err := ParseID(debtorKey)
			if err != nil {
				return fmt.Errorf("debts: bad debtor key %q: %w", debtorKey, err)
			}
			if creditor == debtor {
				return fmt.Errorf("debts: self-referential edge for user %d", creditor)
			}
			if amount <= 0 {
				return fmt.Errorf("debts: edge %d->%d has non-positive amount %d", creditor, debtor, amount)
			}
		}
	}
	for i, rec := range s.History {
		if err := rec.validate(); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	for userKey := range s.UserSettings {
		if _, err := ParseID(userKey); err != nil {
			return fmt.Errorf("user_settings: bad user key %q: %w", userKey, err)
		}
	}
	for guildKey := range s.LogChannels {
		if _, err := ParseID(guildKey); err != nil {
			return fmt.Errorf("log_channels: bad guild key %q: %w", guildKey, err)
		}
	}
	return nil
}

// ParseID parses a decimal snowflake ID as used for snapshot map keys.
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// FormatID renders an ID the way snapshot map keys store it.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
