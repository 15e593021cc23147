package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned when an operation is given a non-positive
	// amount.
	ErrInvalidAmount = errors.New("amount must be at least 1")

	// ErrSelfReference is returned when creditor and debtor are the same
	// user. Callers are expected to screen this too; the store rejects it
	// regardless.
	ErrSelfReference = errors.New("creditor and debtor must be different users")

	// ErrNoSuchDebt is returned when an operation targets an edge that does
	// not exist.
	ErrNoSuchDebt = errors.New("no such debt")

	// ErrTransferDisabled is returned when the creditor has not opted in to
	// debt transfers.
	ErrTransferDisabled = errors.New("debt transfer is not enabled for this user")
)

// InsufficientDebtError is returned when a repayment or transfer amount
// exceeds the current balance on the edge. It carries the balance so callers
// can tell the user how much actually remains.
type InsufficientDebtError struct {
	Requested int64
	Balance   int64
}

func (e *InsufficientDebtError) Error() string {
	return fmt.Sprintf("amount %d exceeds outstanding debt of %d", e.Requested, e.Balance)
}

// StoreIOError wraps a durable-write or read failure. It is distinguishable
// from validation failures so callers can decide whether to retry; the
// in-memory state has been rolled back by the time the caller sees it.
type StoreIOError struct {
	Op  string
	Err error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("ledger store %s failed: %v", e.Op, e.Err)
}

func (e *StoreIOError) Unwrap() error {
	return e.Err
}
