package model

import "time"

// Bonus and redemption types share the same two currencies.
const (
	BonusCash    = "Cash"
	BonusProduct = "Product"
)

// BonusLedgerEntry is an append-only record of a single payout. At most one
// entry exists per (earner, source, relative level, reason), enforced by a
// unique index on the table.
type BonusLedgerEntry struct {
	ID               int64     `json:"id"`
	EarnerName       string    `json:"earner_name"`
	SourceMemberName string    `json:"source_member_name"`
	RelativeLevel    int       `json:"relative_level"`
	BonusType        string    `json:"bonus_type"`
	AmountNum        *float64  `json:"amount_num"`
	AmountText       string    `json:"amount_text"`
	RuleApplied      string    `json:"rule_applied"`
	Reason           string    `json:"reason"`
	CreatedAt        time.Time `json:"created_at"`
}
