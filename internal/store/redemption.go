package store

import (
	"database/sql"
	"fmt"

	"github.com/mich022001/sds-webapp/internal/model"
)

type RedemptionStore struct {
	db *sql.DB
}

func NewRedemptionStore(db *sql.DB) *RedemptionStore {
	return &RedemptionStore{db: db}
}

// Insert appends a redemption row. It runs on the caller's transaction so
// the balance check that precedes it and the summary rebuild that follows
// commit or fail as one unit.
func (s *RedemptionStore) Insert(tx *sql.Tx, r *model.Redemption) error {
	result, err := tx.Exec(
		`INSERT INTO redemptions (member_name, redeem_type, qty, source, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		r.MemberName, r.RedeemType, r.Qty, r.Source, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return nil
}
