package store

import (
	"database/sql"
	"fmt"

	"github.com/mich022001/sds-webapp/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const ledgerCols = `id, earner_name, source_member_name, relative_level, bonus_type, amount_num, amount_text, rule_applied, reason, created_at`

func scanLedgerEntry(scanner interface{ Scan(...any) error }) (*model.BonusLedgerEntry, error) {
	var e model.BonusLedgerEntry
	var amount sql.NullFloat64
	err := scanner.Scan(
		&e.ID, &e.EarnerName, &e.SourceMemberName, &e.RelativeLevel, &e.BonusType,
		&amount, &e.AmountText, &e.RuleApplied, &e.Reason, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		e.AmountNum = &amount.Float64
	}
	return &e, nil
}

// InsertOnce appends a ledger entry unless one already exists for the same
// (earner, source, relative level, reason) key. The unique index does the
// duplicate suppression, so concurrent retries of the same event cannot
// double-pay. It reports whether a row was actually written.
func (s *LedgerStore) InsertOnce(tx *sql.Tx, e *model.BonusLedgerEntry) (bool, error) {
	var amount sql.NullFloat64
	if e.AmountNum != nil {
		amount = sql.NullFloat64{Float64: *e.AmountNum, Valid: true}
	}

	result, err := tx.Exec(
		`INSERT OR IGNORE INTO bonus_ledger
		 (earner_name, source_member_name, relative_level, bonus_type, amount_num, amount_text, rule_applied, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EarnerName, e.SourceMemberName, e.RelativeLevel, e.BonusType,
		amount, e.AmountText, e.RuleApplied, e.Reason,
	)
	if err != nil {
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns ledger entries newest first. A limit of 0 means no limit;
// anything above 1000 is clamped.
func (s *LedgerStore) List(limit int) ([]model.BonusLedgerEntry, error) {
	q := `SELECT ` + ledgerCols + ` FROM bonus_ledger ORDER BY id DESC`
	var args []any
	if limit > 0 {
		if limit > 1000 {
			limit = 1000
		}
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.BonusLedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
