package model

import "time"

// BonusSummary is a derived cache row, one per member. It is always rebuilt
// wholesale from the ledger and redemption logs, never patched incrementally,
// so it can be thrown away and recomputed at any time.
type BonusSummary struct {
	MemberName      string    `json:"member_name"`
	MemberID        string    `json:"member_id"`
	MembershipType  string    `json:"membership_type"`
	TotalCash       float64   `json:"total_cash"`
	TotalProduct    float64   `json:"total_product"`
	RedeemedCash    float64   `json:"redeemed_cash"`
	RedeemedProduct float64   `json:"redeemed_product"`
	BalanceCash     float64   `json:"balance_cash"`
	BalanceProduct  float64   `json:"balance_product"`
	UpdatedAt       time.Time `json:"updated_at"`
}
