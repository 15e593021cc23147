// Package ledger implements the debt ledger engine: directed money-owed
// edges between users, an append-only audit history, per-user flags, and
// per-guild log-channel bindings.
//
// A single Ledger instance owns all state for the lifetime of the process.
// One lock guards the entire read-modify-write-persist sequence of every
// mutating operation, so callers never observe a half-applied compound
// mutation and concurrent writers never lose updates. Every mutation is
// persisted in full before it reports success; if the durable write fails,
// the in-memory change is rolled back so memory and disk never diverge.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirorogo/fusaikanri/internal/models"
	"github.com/hirorogo/fusaikanri/internal/storage"
)

// topListSize caps the summary top-creditor and top-debtor lists.
const topListSize = 5

// state is the in-memory ledger representation. It is cloned before every
// mutation so a failed persist can restore the pre-call state.
type state struct {
	// debts maps creditor -> debtor -> amount. Amounts are always positive;
	// an edge reaching zero is deleted, as is a creditor with no edges left.
	debts map[int64]map[int64]int64

	history  []models.HistoryRecord
	settings map[int64]models.UserFlags
	channels map[int64]int64
}

// Ledger is the debt ledger engine. Construct it with New and share the one
// instance; all methods are safe for concurrent use.
type Ledger struct {
	mu    sync.RWMutex
	store storage.Store
	st    state

	// transferDefault applies to users who never set their transfer flag.
	transferDefault bool

	now   func() time.Time
	newID func() string
}

// New loads the persisted snapshot from store and returns a ready ledger.
// If no prior state exists the ledger starts empty. transferDefault is the
// process-wide fallback for users who never set their transfer flag.
func New(ctx context.Context, store storage.Store, transferDefault bool) (*Ledger, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, &StoreIOError{Op: "load", Err: err}
	}
	st, err := stateFromSnapshot(snap)
	if err != nil {
		return nil, &StoreIOError{Op: "load", Err: err}
	}
	return &Ledger{
		store:           store,
		st:              st,
		transferDefault: transferDefault,
		now:             time.Now,
		newID:           uuid.NewString,
	}, nil
}

// Balance returns how much debtor currently owes creditor, 0 if no edge
// exists. It never fails.
func (l *Ledger) Balance(creditor, debtor int64) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st.debts[creditor][debtor]
}

// AddDebt increments the (creditor, debtor) edge by amount, creating it if
// absent, and returns the new total owed on that edge.
func (l *Ledger) AddDebt(ctx context.Context, creditor, debtor, amount int64, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if creditor == debtor {
		return 0, ErrSelfReference
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.st.clone()
	if l.st.debts[creditor] == nil {
		l.st.debts[creditor] = make(map[int64]int64)
	}
	l.st.debts[creditor][debtor] += amount
	total := l.st.debts[creditor][debtor]
	l.appendHistory(models.ActionAdd, creditor, debtor, amount, memo)

	if err := l.persist(ctx, prev); err != nil {
		return 0, err
	}
	return total, nil
}

// PayDebt decrements the (creditor, debtor) edge by amount and returns the
// remaining balance, 0 on full payoff. A full payoff deletes the edge.
func (l *Ledger) PayDebt(ctx context.Context, creditor, debtor, amount int64) (int64, error) {
	return l.pay(ctx, creditor, debtor, amount, models.ActionPay, "")
}

// PayOnBehalf is PayDebt performed by a third party. The payer's identity is
// recorded in history; the store deliberately performs no authorization
// check on who may pay down whose debt (open-trust policy).
func (l *Ledger) PayOnBehalf(ctx context.Context, payer, creditor, debtor, amount int64) (int64, error) {
	return l.pay(ctx, creditor, debtor, amount, models.ActionPayOnBehalf, "payer:"+models.FormatID(payer))
}

func (l *Ledger) pay(ctx context.Context, creditor, debtor, amount int64, action models.Action, note string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.st.debts[creditor][debtor]
	if !ok {
		return 0, ErrNoSuchDebt
	}
	if amount > current {
		return 0, &InsufficientDebtError{Requested: amount, Balance: current}
	}

	prev := l.st.clone()
	remaining := current - amount
	l.st.setEdge(creditor, debtor, remaining)
	l.appendHistory(action, creditor, debtor, amount, note)

	if err := l.persist(ctx, prev); err != nil {
		return 0, err
	}
	return remaining, nil
}

// TransferDebt moves amount of the (creditor, debtor) edge onto the
// (newCreditor, debtor) edge as one atomic unit, and returns the balance
// remaining on the original edge. The creditor must have opted in to
// transfers. A crash or store failure never leaves a partial transfer: both
// edge mutations land in the single persisted snapshot or neither does.
func (l *Ledger) TransferDebt(ctx context.Context, creditor, debtor, newCreditor, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.transferEnabled(creditor) {
		return 0, ErrTransferDisabled
	}
	current, ok := l.st.debts[creditor][debtor]
	if !ok {
		return 0, ErrNoSuchDebt
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if amount > current {
		return 0, &InsufficientDebtError{Requested: amount, Balance: current}
	}
	if newCreditor == debtor {
		return 0, ErrSelfReference
	}

	prev := l.st.clone()
	remaining := current - amount
	l.st.setEdge(creditor, debtor, remaining)
	if l.st.debts[newCreditor] == nil {
		l.st.debts[newCreditor] = make(map[int64]int64)
	}
	l.st.debts[newCreditor][debtor] += amount
	l.appendHistory(models.ActionTransfer, creditor, debtor, amount, "to:"+models.FormatID(newCreditor))

	if err := l.persist(ctx, prev); err != nil {
		return 0, err
	}
	return remaining, nil
}

// UserDebts lists the user's edges partitioned by role, each side sorted by
// counterparty ID ascending.
func (l *Ledger) UserDebts(user int64) models.UserDebts {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := models.UserDebts{
		AsCreditor: []models.DebtEntry{},
		AsDebtor:   []models.DebtEntry{},
	}
	for debtor, amount := range l.st.debts[user] {
		result.AsCreditor = append(result.AsCreditor, models.DebtEntry{User: debtor, Amount: amount})
	}
	for creditor, debtors := range l.st.debts {
		if amount, ok := debtors[user]; ok {
			result.AsDebtor = append(result.AsDebtor, models.DebtEntry{User: creditor, Amount: amount})
		}
	}
	sortEntries(result.AsCreditor)
	sortEntries(result.AsDebtor)
	return result
}

// History returns the last limit records in chronological order, oldest of
// the window first. A non-positive limit yields an empty slice.
func (l *Ledger) History(limit int) []models.HistoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lastN(l.st.history, limit)
}

// UserHistory is History filtered to records where user appears as creditor
// or debtor.
func (l *Ledger) UserHistory(user int64, limit int) []models.HistoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []models.HistoryRecord
	for _, rec := range l.st.history {
		if rec.Involves(user) {
			filtered = append(filtered, rec)
		}
	}
	return lastN(filtered, limit)
}

// Summary reports system-wide totals and the top creditors and debtors.
// Top lists rank by total descending; ties break by ascending user ID.
func (l *Ledger) Summary() models.SummaryReport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var report models.SummaryReport
	lent := make(map[int64]int64)
	owed := make(map[int64]int64)
	users := make(map[int64]struct{})
	for creditor, debtors := range l.st.debts {
		for debtor, amount := range debtors {
			report.TotalDebts += amount
			lent[creditor] += amount
			owed[debtor] += amount
			users[creditor] = struct{}{}
			users[debtor] = struct{}{}
		}
	}
	report.TotalUsers = len(users)
	report.TopCreditors = rank(lent)
	report.TopDebtors = rank(owed)
	return report
}

// SetTransferEnabled records the user's debt-transfer opt-in.
func (l *Ledger) SetTransferEnabled(ctx context.Context, user int64, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.st.clone()
	v := enabled
	l.st.settings[user] = models.UserFlags{TransferEnabled: &v}
	return l.persist(ctx, prev)
}

// TransferEnabled reports whether the user may transfer debts they hold,
// falling back to the process-wide default when unset.
func (l *Ledger) TransferEnabled(user int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.transferEnabled(user)
}

func (l *Ledger) transferEnabled(user int64) bool {
	if flags, ok := l.st.settings[user]; ok && flags.TransferEnabled != nil {
		return *flags.TransferEnabled
	}
	return l.transferDefault
}

// SetLogChannel binds the guild's notification channel. The ledger stores
// the binding for the host's notification layer and assigns it no meaning.
func (l *Ledger) SetLogChannel(ctx context.Context, guild, channel int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.st.clone()
	l.st.channels[guild] = channel
	return l.persist(ctx, prev)
}

// LogChannel returns the guild's notification channel, if bound.
func (l *Ledger) LogChannel(guild int64) (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	channel, ok := l.st.channels[guild]
	return channel, ok
}

// appendHistory must be called with the write lock held.
func (l *Ledger) appendHistory(action models.Action, creditor, debtor, amount int64, note string) {
	l.st.history = append(l.st.history, models.HistoryRecord{
		ID:        l.newID(),
		Action:    action,
		Creditor:  creditor,
		Debtor:    debtor,
		Amount:    amount,
		Note:      note,
		Timestamp: l.now().UTC(),
	})
}

// persist writes the full state and rolls back to prev on failure. Must be
// called with the write lock held.
func (l *Ledger) persist(ctx context.Context, prev state) error {
	if err := l.store.Save(ctx, l.st.snapshot()); err != nil {
		l.st = prev
		return &StoreIOError{Op: "save", Err: err}
	}
	return nil
}

// setEdge updates one edge, deleting it when the amount reaches zero and
// pruning a creditor left with no edges.
func (s *state) setEdge(creditor, debtor, amount int64) {
	if amount == 0 {
		delete(s.debts[creditor], debtor)
		if len(s.debts[creditor]) == 0 {
			delete(s.debts, creditor)
		}
		return
	}
	s.debts[creditor][debtor] = amount
}

func (s *state) clone() state {
	debts := make(map[int64]map[int64]int64, len(s.debts))
	for creditor, debtors := range s.debts {
		inner := make(map[int64]int64, len(debtors))
		for debtor, amount := range debtors {
			inner[debtor] = amount
		}
		debts[creditor] = inner
	}
	settings := make(map[int64]models.UserFlags, len(s.settings))
	for user, flags := range s.settings {
		settings[user] = flags
	}
	channels := make(map[int64]int64, len(s.channels))
	for guild, channel := range s.channels {
		channels[guild] = channel
	}
	return state{
		debts:    debts,
		history:  append([]models.HistoryRecord(nil), s.history...),
		settings: settings,
		channels: channels,
	}
}

// snapshot converts the in-memory state to the on-disk document shape.
func (s *state) snapshot() *models.Snapshot {
	snap := models.NewSnapshot()
	for creditor, debtors := range s.debts {
		inner := make(map[string]int64, len(debtors))
		for debtor, amount := range debtors {
			inner[models.FormatID(debtor)] = amount
		}
		snap.Debts[models.FormatID(creditor)] = inner
	}
	snap.History = append(snap.History, s.history...)
	for user, flags := range s.settings {
		snap.UserSettings[models.FormatID(user)] = flags
	}
	for guild, channel := range s.channels {
		snap.LogChannels[models.FormatID(guild)] = channel
	}
	return snap
}

func stateFromSnapshot(snap *models.Snapshot) (state, error) {
	if err := snap.Validate(); err != nil {
		return state{}, err
	}
	st := state{
		debts:    make(map[int64]map[int64]int64, len(snap.Debts)),
		history:  append([]models.HistoryRecord(nil), snap.History...),
		settings: make(map[int64]models.UserFlags, len(snap.UserSettings)),
		channels: make(map[int64]int64, len(snap.LogChannels)),
	}
	for creditorKey, debtors := range snap.Debts {
		creditor, err := models.ParseID(creditorKey)
		if err != nil {
			return state{}, err
		}
		inner := make(map[int64]int64, len(debtors))
		for debtorKey, amount := range debtors {
			debtor, err := models.ParseID(debtorKey)
			if err != nil {
				return state{}, err
			}
			inner[debtor] = amount
		}
		st.debts[creditor] = inner
	}
	for userKey, flags := range snap.UserSettings {
		user, err := models.ParseID(userKey)
		if err != nil {
			return state{}, err
		}
		st.settings[user] = flags
	}
	for guildKey, channel := range snap.LogChannels {
		guild, err := models.ParseID(guildKey)
		if err != nil {
			return state{}, err
		}
		st.channels[guild] = channel
	}
	return st, nil
}

func sortEntries(entries []models.DebtEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].User < entries[j].User
	})
}

func rank(totals map[int64]int64) []models.RankedUser {
	ranked := make([]models.RankedUser, 0, len(totals))
	for user, total := range totals {
		ranked = append(ranked, models.RankedUser{User: user, Total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].User < ranked[j].User
	})
	if len(ranked) > topListSize {
		ranked = ranked[:topListSize]
	}
	return ranked
}

func lastN(records []models.HistoryRecord, limit int) []models.HistoryRecord {
	if limit <= 0 || len(records) == 0 {
		return []models.HistoryRecord{}
	}
	if limit > len(records) {
		limit = len(records)
	}
	window := records[len(records)-limit:]
	return append([]models.HistoryRecord(nil), window...)
}
