package membership

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mich022001/sds-webapp/internal/model"
	"github.com/mich022001/sds-webapp/internal/store"
)

const (
	// DefaultIDPrefix is the fixed prefix on generated member ids.
	DefaultIDPrefix = "2026EM"

	// RootSponsor is the sentinel sponsor name meaning "no sponsor": members
	// registered directly under the organization sit at level 0.
	RootSponsor = "SDS"

	registrationReason = "Member Registration"
	redemptionSource   = "Member Profile"
)

// Service owns the member lifecycle: registration with sequential id
// allocation and sponsor resolution, multi-level commission distribution,
// and balance-checked redemptions. Every mutating operation runs in a single
// write transaction so the logs and the derived summary always commit
// together.
type Service struct {
	db          *sql.DB
	members     *store.MemberStore
	ledger      *store.LedgerStore
	redemptions *store.RedemptionStore
	summaries   *store.SummaryStore
	idPrefix    string
	logger      *slog.Logger
}

func NewService(db *sql.DB, members *store.MemberStore, ledger *store.LedgerStore, redemptions *store.RedemptionStore, summaries *store.SummaryStore, idPrefix string, logger *slog.Logger) *Service {
	if idPrefix == "" {
		idPrefix = DefaultIDPrefix
	}
	return &Service{
		db:          db,
		members:     members,
		ledger:      ledger,
		redemptions: redemptions,
		summaries:   summaries,
		idPrefix:    idPrefix,
		logger:      logger,
	}
}

type RegisterInput struct {
	Name           string
	Contact        string
	Email          string
	MembershipType string
	Address        string
	Sponsor        string
	AreaRegion     string
}

// RegisterResult reports what happened during a registration so the caller
// can notify listeners after the transaction commits.
type RegisterResult struct {
	MemberID        string
	Name            string
	SponsorName     string
	SponsorPromoted bool
	PaidEarners     []string
}

// Register creates a new member: duplicate check, sponsor resolution, id
// allocation, insert, zero-state summary, sponsor promotion, and commission
// distribution up the sponsor chain, all in one write transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	membershipType := in.MembershipType
	if membershipType == "" {
		membershipType = model.TypeMember
	}

	var result *RegisterResult
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.members.GetByName(tx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateMember
		}

		sponsor, err := s.resolveSponsor(tx, in.Sponsor)
		if err != nil {
			return err
		}

		level := 0
		sponsorName := strings.TrimSpace(in.Sponsor)
		if sponsor != nil {
			level = sponsor.Level + 1
			sponsorName = sponsor.Name
		}

		memberID, err := s.members.NextMemberID(tx, s.idPrefix)
		if err != nil {
			return err
		}

		member := &model.Member{
			Name:            name,
			MemberID:        memberID,
			Contact:         in.Contact,
			Email:           in.Email,
			MembershipType:  membershipType,
			Level:           level,
			Address:         in.Address,
			SponsorName:     sponsorName,
			RegionalManager: regionalManagerFor(name, membershipType, sponsor),
			AreaRegion:      in.AreaRegion,
		}
		if sponsor != nil {
			member.SponsorID = &sponsor.ID
		}
		if err := s.members.Insert(tx, member); err != nil {
			if constraintOn(err, "members.name") {
				return ErrDuplicateMember
			}
			return err
		}

		// New members start from a zero-balance summary row.
		if _, err := s.summaries.Rebuild(tx, name); err != nil {
			return err
		}

		result = &RegisterResult{MemberID: memberID, Name: name}
		if sponsor == nil {
			return nil
		}
		result.SponsorName = sponsor.Name

		promoted, err := s.members.Promote(tx, sponsor.Name)
		if err != nil {
			return err
		}
		result.SponsorPromoted = promoted

		paid, err := s.distribute(tx, name, sponsor)
		if err != nil {
			return err
		}
		result.PaidEarners = paid
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member registered",
		"name", result.Name,
		"member_id", result.MemberID,
		"sponsor", result.SponsorName,
		"earners_paid", len(result.PaidEarners),
	)
	return result, nil
}

type RedeemInput struct {
	MemberName string
	Type       string
	Qty        float64
	Notes      string
}

// Redeem validates and records a redemption. The balance check and the
// append run in the same write transaction, so two concurrent redemptions
// cannot both pass the check and overdraw the balance.
func (s *Service) Redeem(ctx context.Context, in RedeemInput) error {
	if strings.TrimSpace(in.MemberName) == "" {
		return ErrMemberRequired
	}
	if in.Type != model.BonusCash && in.Type != model.BonusProduct {
		return ErrTypeInvalid
	}
	if !(in.Qty > 0) {
		return ErrQtyNotPositive
	}

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		cash, product, err := s.summaries.Balances(tx, in.MemberName)
		if err != nil {
			return err
		}
		balance := cash
		if in.Type == model.BonusProduct {
			balance = product
		}
		if in.Qty > balance {
			return ErrInsufficientBalance
		}

		if err := s.redemptions.Insert(tx, &model.Redemption{
			MemberName: in.MemberName,
			RedeemType: in.Type,
			Qty:        in.Qty,
			Source:     redemptionSource,
			Notes:      in.Notes,
		}); err != nil {
			return err
		}

		_, err = s.summaries.Rebuild(tx, in.MemberName)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("redemption recorded", "member", in.MemberName, "type", in.Type, "qty", in.Qty)
	return nil
}

// Distribute replays commission distribution for an already-registered
// member. The ledger's uniqueness key makes this idempotent: levels that
// were already paid are skipped, so it is safe to run after a registration
// that failed partway, or when re-processing a registration event. It
// returns the earners that received a new ledger entry.
func (s *Service) Distribute(ctx context.Context, memberName string) ([]string, error) {
	name := strings.TrimSpace(memberName)
	if name == "" {
		return nil, ErrMemberRequired
	}

	var paid []string
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		member, err := s.members.GetByName(tx, name)
		if err != nil {
			return err
		}
		if member == nil {
			return ErrMemberNotFound
		}

		if member.SponsorID == nil {
			return nil
		}
		sponsor, err := s.members.GetByID(tx, *member.SponsorID)
		if err != nil {
			return err
		}
		if sponsor == nil {
			// A sponsor row that no longer exists truncates the walk at
			// depth zero rather than failing the replay.
			return nil
		}

		paid, err = s.distribute(tx, member.Name, sponsor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("distribution replayed", "member", name, "earners_paid", len(paid))
	return paid, nil
}

// GetSummary returns a member's current summary, or nil if none exists.
func (s *Service) GetSummary(memberName string) (*model.BonusSummary, error) {
	return s.summaries.Get(memberName)
}

// withWriteTx runs fn in a write transaction with bounded retries. SQLite
// allows one writer at a time, so competing transactions surface as busy
// errors; a losing id allocation surfaces as a unique violation on
// member_id. Both are safe to rerun from scratch. Business errors are
// returned as-is and never retried.
func (s *Service) withWriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			if retryableConflict(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			if retryableConflict(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// retryableConflict reports whether an error is a transient serialization
// conflict: the database was locked by another writer, or two transactions
// raced to allocate from the same id sequence and the loser must rerun.
func retryableConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "members.member_id") ||
		strings.Contains(msg, "member_id_seq")
}

// constraintOn reports whether err is a unique-constraint violation on the
// given column.
func constraintOn(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), column)
}
