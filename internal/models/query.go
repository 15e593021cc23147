package models

// DebtEntry is one edge as seen from one side: the counterparty and the
// amount on the edge.
type DebtEntry struct {
	// User is the counterparty: the debtor when listing debts owed to a
	// creditor, the creditor when listing debts a user owes.
	User int64 `json:"user,string"`

	// Amount is the current balance on the edge.
	Amount int64 `json:"amount"`
}

// UserDebts partitions one user's edges by role.
type UserDebts struct {
	// AsCreditor lists edges where the user is owed money.
	AsCreditor []DebtEntry `json:"as_creditor"`

	// AsDebtor lists edges where the user owes money.
	AsDebtor []DebtEntry `json:"as_debtor"`
}

// RankedUser is one entry in a summary top list.
type RankedUser struct {
	User int64 `json:"user,string"`

	// Total is the sum of the user's outgoing (top creditors) or incoming
	// (top debtors) edge amounts.
	Total int64 `json:"total"`
}

// SummaryReport describes the whole ledger at a point in time.
type SummaryReport struct {
	// TotalDebts is the sum of all edge amounts.
	TotalDebts int64 `json:"total_debts"`

	// TotalUsers counts distinct users appearing on any edge, either side.
	TotalUsers int `json:"total_users"`

	// TopCreditors ranks users by total amount owed to them, descending,
	// ties broken by ascending user ID. At most five entries.
	TopCreditors []RankedUser `json:"top_creditors"`

	// TopDebtors ranks users by total amount they owe, same ordering rule.
	TopDebtors []RankedUser `json:"top_debtors"`
}
