package model

import "time"

// Membership types, in rough order of seniority. A sponsor on the base tier
// is upgraded to Distributor the first time it recruits someone.
const (
	TypeMember          = "Member"
	TypeDistributor     = "Distributor"
	TypeStockiest       = "Stockiest"
	TypeAreaManager     = "Area Manager"
	TypeRegionalManager = "Regional Manager"
)

type Member struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	MemberID        string    `json:"member_id"`
	Contact         string    `json:"contact"`
	Email           string    `json:"email"`
	MembershipType  string    `json:"membership_type"`
	Level           int       `json:"level"`
	Address         string    `json:"address"`
	SponsorID       *int64    `json:"sponsor_id"`
	SponsorName     string    `json:"sponsor_name"`
	RegionalManager string    `json:"regional_manager"`
	AreaRegion      string    `json:"area_region"`
	CreatedAt       time.Time `json:"created_at"`
}
