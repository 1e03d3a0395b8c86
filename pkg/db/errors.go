package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

// sqliteUniqueColumns maps constraint names to the column list SQLite prints
// in place of the name, in index order.
var sqliteUniqueColumns = map[string]string{
	"accounts_user_id_key":                      "accounts.user_id",
	"ledger_entries_account_seq_key":            "ledger_entries.account_id, ledger_entries.seq",
	"ledger_entries_account_kind_reference_key": "ledger_entries.account_id, ledger_entries.kind, ledger_entries.reference_id",
	"document_sequences_pkey":                   "document_sequences.prefix",
	"invoices_number_key":                       "invoices.number",
	"badges_subject_type_key":                   "badges.subject_id, badges.type",
	"favorites_user_target_key":                 "favorites.user_id, favorites.target_id, favorites.target_kind",
}

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraintName is provided, the violation must reference it.
// SQLite errors are matched on the constraint's column list.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation && matchesConstraint(pgxErr.ConstraintName, constraintName)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation && matchesConstraint(pqErr.Constraint, constraintName)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode != sqlite3.ErrConstraintUnique && liteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
			return false
		}
		return constraintName == "" || matchesSQLiteColumns(liteErr.Error(), constraintName)
	}

	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsConflict reports whether err is a transient concurrency failure: a
// serialization failure, deadlock, lock timeout, statement timeout or a busy
// SQLite database. The whole transaction may be retried.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return isConflictCode(pgxErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isConflictCode(string(pqErr.Code))
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isConflictCode(code string) bool {
	switch code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled:
		return true
	}
	return false
}

func matchesConstraint(actual, expected string) bool {
	return expected == "" || actual == expected
}

// matchesSQLiteColumns compares the column list after the "failed: " marker
// exactly so a composite key never matches its own prefix.
func matchesSQLiteColumns(msg, constraintName string) bool {
	columns, ok := sqliteUniqueColumns[constraintName]
	if !ok {
		return strings.Contains(msg, constraintName)
	}
	_, failed, found := strings.Cut(msg, "failed: ")
	if !found {
		return false
	}
	return strings.TrimSpace(failed) == columns
}
