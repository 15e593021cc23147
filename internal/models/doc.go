// Package models defines the core domain records for the debt ledger.
//
// # Records
//
//   - HistoryRecord: immutable audit entry for one mutating ledger action
//   - UserFlags: per-user feature flags (currently just transfer opt-in)
//   - Snapshot: the full on-disk document (debts, history, settings, channels)
//
// # Query shapes
//
//   - DebtEntry / UserDebts: per-user debt listings partitioned by role
//   - RankedUser / SummaryReport: system-wide totals and top lists
//
// # Design principles
//
//  1. **Integer money**: amounts are whole currency units (int64), never
//     fractional. A stored amount is always positive; an edge that would
//     reach zero is deleted instead of kept as a zero entry.
//  2. **Opaque IDs**: users, guilds, and channels are 64-bit chat-platform
//     snowflakes. They serialize as decimal strings so the on-disk document
//     stays readable by consumers that cannot hold 64-bit integers.
//  3. **Validated on load**: Snapshot.Validate rejects documents that parse
//     but violate ledger invariants, rather than trusting the file blindly.
package models
