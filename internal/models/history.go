package models

import (
	"fmt"
	"time"
)

// Action identifies the kind of mutation a history record describes.
type Action string

const (
	// ActionAdd records new debt on an edge.
	ActionAdd Action = "add"
	// ActionPay records a repayment by the debtor.
	ActionPay Action = "pay"
	// ActionPayOnBehalf records a repayment made by a third party.
	// The record's Note carries the payer as "payer:<id>".
	ActionPayOnBehalf Action = "pay_on_behalf"
	// ActionTransfer records debt moving to a new creditor.
	// The record's Note carries the new creditor as "to:<id>".
	ActionTransfer Action = "transfer"
)

// Valid reports whether a is one of the recognized actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionPay, ActionPayOnBehalf, ActionTransfer:
		return true
	}
	return false
}

// HistoryRecord is one immutable audit entry. Records are append-only and
// never reordered or mutated after the fact; ordering is insertion order.
type HistoryRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	// Action is the kind of mutation.
	Action Action `json:"action"`

	// Creditor is the user owed money on the affected edge.
	Creditor int64 `json:"creditor,string"`

	// Debtor is the user owing money on the affected edge.
	Debtor int64 `json:"debtor,string"`

	// Amount is the amount the action moved. Always positive.
	Amount int64 `json:"amount"`

	// Note is free-form metadata: the caller's memo for adds, the payer for
	// third-party repayments, the new creditor for transfers.
	Note string `json:"note"`

	// Timestamp is when the action was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Involves reports whether user appears as creditor or debtor on the record.
func (r HistoryRecord) Involves(user int64) bool {
	return r.Creditor == user || r.Debtor == user
}

func (r HistoryRecord) validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("unknown history action %q", r.Action)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("history record amount %d is not positive", r.Amount)
	}
	return nil
}
