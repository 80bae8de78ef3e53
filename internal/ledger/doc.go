// Package ledger keeps an audit trail of review sessions in SQLite.
//
// Every session gets one row with its category, threshold and final outcome,
// plus one event row per clip that was moved, skipped or refused. The ledger is
// what makes a partially completed category auditable after the fact; the
// progress record remains the source of truth for completion.
package ledger
