package model

import "time"

// Redemption is an append-only record of a member cashing out part of an
// earned balance. Rows are never updated or deleted.
type Redemption struct {
	ID         int64     `json:"id"`
	MemberName string    `json:"member_name"`
	RedeemType string    `json:"redeem_type"`
	Qty        float64   `json:"qty"`
	Source     string    `json:"source"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}
