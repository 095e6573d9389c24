package store

import (
	"database/sql"
	"fmt"

	"github.com/mich022001/sds-webapp/internal/model"
)

type SummaryStore struct {
	db *sql.DB
}

func NewSummaryStore(db *sql.DB) *SummaryStore {
	return &SummaryStore{db: db}
}

const summaryCols = `member_name, member_id, membership_type, total_cash, total_product, redeemed_cash, redeemed_product, balance_cash, balance_product, updated_at`

func scanSummary(scanner interface{ Scan(...any) error }) (*model.BonusSummary, error) {
	var s model.BonusSummary
	err := scanner.Scan(
		&s.MemberName, &s.MemberID, &s.MembershipType,
		&s.TotalCash, &s.TotalProduct, &s.RedeemedCash, &s.RedeemedProduct,
		&s.BalanceCash, &s.BalanceProduct, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns a member's summary row, or nil if none has been built yet.
func (s *SummaryStore) Get(memberName string) (*model.BonusSummary, error) {
	row := s.db.QueryRow(`SELECT `+summaryCols+` FROM member_bonus_summary WHERE member_name = ?`, memberName)
	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return sum, nil
}

// Balances reads the current cash and product balances inside the caller's
// transaction. A member with no summary row has zero balances.
func (s *SummaryStore) Balances(tx *sql.Tx, memberName string) (cash, product float64, err error) {
	err = tx.QueryRow(
		`SELECT balance_cash, balance_product FROM member_bonus_summary WHERE member_name = ?`,
		memberName,
	).Scan(&cash, &product)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("query balances: %w", err)
	}
	return cash, product, nil
}

// Rebuild recomputes a member's summary from scratch: bonus totals from the
// ledger, redeemed totals from the redemption log, balances as the
// difference, plus a snapshot of the member's id and membership type. The
// row is upserted wholesale; nothing is patched incrementally. Entries with
// no numeric amount (the "Outright" direct bonus) contribute zero.
func (s *SummaryStore) Rebuild(tx *sql.Tx, memberName string) (*model.BonusSummary, error) {
	var totalCash, totalProduct float64
	err := tx.QueryRow(
		`SELECT
		   COALESCE(SUM(CASE WHEN bonus_type = ? THEN COALESCE(amount_num, 0) ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN bonus_type = ? THEN COALESCE(amount_num, 0) ELSE 0 END), 0)
		 FROM bonus_ledger WHERE earner_name = ?`,
		model.BonusCash, model.BonusProduct, memberName,
	).Scan(&totalCash, &totalProduct)
	if err != nil {
		return nil, fmt.Errorf("sum ledger totals: %w", err)
	}

	var redeemedCash, redeemedProduct float64
	err = tx.QueryRow(
		`SELECT
		   COALESCE(SUM(CASE WHEN redeem_type = ? THEN qty ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN redeem_type = ? THEN qty ELSE 0 END), 0)
		 FROM redemptions WHERE member_name = ?`,
		model.BonusCash, model.BonusProduct, memberName,
	).Scan(&redeemedCash, &redeemedProduct)
	if err != nil {
		return nil, fmt.Errorf("sum redemptions: %w", err)
	}

	// Snapshot the member's id and type. Both stay empty if the member row
	// is gone; the summary still reflects the logs.
	var memberID, membershipType string
	err = tx.QueryRow(`SELECT member_id, membership_type FROM members WHERE name = ? COLLATE NOCASE`, memberName).
		Scan(&memberID, &membershipType)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("query member snapshot: %w", err)
	}

	sum := &model.BonusSummary{
		MemberName:      memberName,
		MemberID:        memberID,
		MembershipType:  membershipType,
		TotalCash:       totalCash,
		TotalProduct:    totalProduct,
		RedeemedCash:    redeemedCash,
		RedeemedProduct: redeemedProduct,
		BalanceCash:     totalCash - redeemedCash,
		BalanceProduct:  totalProduct - redeemedProduct,
	}

	_, err = tx.Exec(
		`INSERT INTO member_bonus_summary
		 (member_name, member_id, membership_type, total_cash, total_product, redeemed_cash, redeemed_product, balance_cash, balance_product, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (member_name) DO UPDATE SET
		   member_id = excluded.member_id,
		   membership_type = excluded.membership_type,
		   total_cash = excluded.total_cash,
		   total_product = excluded.total_product,
		   redeemed_cash = excluded.redeemed_cash,
		   redeemed_product = excluded.redeemed_product,
		   balance_cash = excluded.balance_cash,
		   balance_product = excluded.balance_product,
		   updated_at = excluded.updated_at`,
		sum.MemberName, sum.MemberID, sum.MembershipType,
		sum.TotalCash, sum.TotalProduct, sum.RedeemedCash, sum.RedeemedProduct,
		sum.BalanceCash, sum.BalanceProduct,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert summary: %w", err)
	}
	return sum, nil
}
