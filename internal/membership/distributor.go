package membership

import (
	"database/sql"
	"strings"

	"github.com/mich022001/sds-webapp/internal/model"
)

// maxUplineDepth caps how far up the sponsor chain a registration pays out.
const maxUplineDepth = 7

// resolveSponsor looks up the sponsor named in a registration. An empty name
// or the root sentinel means the member has no sponsor. A non-sentinel name
// that matches no member is rejected.
func (s *Service) resolveSponsor(tx *sql.Tx, sponsorName string) (*model.Member, error) {
	name := strings.TrimSpace(sponsorName)
	if name == "" || strings.EqualFold(name, RootSponsor) {
		return nil, nil
	}
	sponsor, err := s.members.GetByName(tx, name)
	if err != nil {
		return nil, err
	}
	if sponsor == nil {
		return nil, ErrSponsorNotFound
	}
	return sponsor, nil
}

// regionalManagerFor picks the regional manager recorded on a new member: a
// Regional Manager is its own, a member sponsored by one gets the sponsor,
// everyone else inherits whatever the sponsor carries.
func regionalManagerFor(name, membershipType string, sponsor *model.Member) string {
	if membershipType == model.TypeRegionalManager {
		return name
	}
	if sponsor == nil {
		return ""
	}
	if sponsor.MembershipType == model.TypeRegionalManager {
		return sponsor.Name
	}
	return sponsor.RegionalManager
}

// bonusForLevel returns the payout tier for an earner at the given distance
// from the newly registered member. Level 1 is an outright cash bonus with
// no ledger amount, level 2 pays one product unit, levels 3 through 7 pay a
// flat developer bonus.
func bonusForLevel(relativeLevel int) (bonusType string, amount *float64, amountText, rule string) {
	switch relativeLevel {
	case 1:
		return model.BonusCash, nil, "Outright", "Direct Bonus"
	case 2:
		one := 1.0
		return model.BonusProduct, &one, "", "Indirect Bonus"
	default:
		flat := 200.0
		return model.BonusCash, &flat, "", "Developer Bonus"
	}
}

// distribute walks up the sponsor chain from the immediate sponsor, writing
// at most one ledger entry per level and rebuilding each paid earner's
// summary. The walk stops past maxUplineDepth, at a member with no sponsor,
// or when an ancestor record cannot be found; a broken chain truncates the
// payout rather than failing the registration. It returns the earners that
// received a new entry.
func (s *Service) distribute(tx *sql.Tx, sourceName string, sponsor *model.Member) ([]string, error) {
	var paid []string

	current := sponsor
	for relativeLevel := 1; current != nil && relativeLevel <= maxUplineDepth; relativeLevel++ {
		bonusType, amount, amountText, rule := bonusForLevel(relativeLevel)

		inserted, err := s.ledger.InsertOnce(tx, &model.BonusLedgerEntry{
			EarnerName:       current.Name,
			SourceMemberName: sourceName,
			RelativeLevel:    relativeLevel,
			BonusType:        bonusType,
			AmountNum:        amount,
			AmountText:       amountText,
			RuleApplied:      rule,
			Reason:           registrationReason,
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			if _, err := s.summaries.Rebuild(tx, current.Name); err != nil {
				return nil, err
			}
			paid = append(paid, current.Name)
		}

		if current.SponsorID == nil {
			break
		}
		next, err := s.members.GetByID(tx, *current.SponsorID)
		if err != nil {
			return nil, err
		}
		if next == nil {
			// Missing ancestor: truncate the payout, don't fail the walk.
			break
		}
		current = next
	}

	return paid, nil
}
