package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mich022001/sds-webapp/internal/model"
)

// Member id corruption errors. Both indicate bad data in the members table
// rather than bad input, so callers should fail the request and surface the
// problem to an operator instead of retrying.
var (
	ErrIDFormat = errors.New("last member id has unexpected prefix")
	ErrIDParse  = errors.New("last member id suffix is not numeric")
)

// memberIDPad is the width of the zero-padded numeric suffix in a member id.
const memberIDPad = 6

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `id, name, member_id, contact, email, membership_type, level, address, sponsor_id, sponsor_name, regional_manager, area_region, created_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var sponsorID sql.NullInt64
	err := scanner.Scan(
		&m.ID, &m.Name, &m.MemberID, &m.Contact, &m.Email, &m.MembershipType,
		&m.Level, &m.Address, &sponsorID, &m.SponsorName, &m.RegionalManager, &m.AreaRegion, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sponsorID.Valid {
		m.SponsorID = &sponsorID.Int64
	}
	return &m, nil
}

// GetByName looks a member up by name, case-insensitively. Duplicate checks
// and sponsor resolution run inside a registration transaction, so the
// lookup takes the caller's tx rather than the pooled handle.
func (s *MemberStore) GetByName(tx *sql.Tx, name string) (*model.Member, error) {
	row := tx.QueryRow(`SELECT `+memberCols+` FROM members WHERE name = ? COLLATE NOCASE`, name)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query member by name: %w", err)
	}
	return m, nil
}

// GetByID looks a member up by row id. The upline walk follows sponsor_id
// links, which survive renames.
func (s *MemberStore) GetByID(tx *sql.Tx, id int64) (*model.Member, error) {
	row := tx.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query member by id: %w", err)
	}
	return m, nil
}

// List returns members newest first. A limit of 0 means no limit; anything
// above 1000 is clamped.
func (s *MemberStore) List(limit int) ([]model.Member, error) {
	q := `SELECT ` + memberCols + ` FROM members ORDER BY id DESC`
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
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// NextMemberID allocates the next identifier for the prefix: the prefix plus
// a zero-padded sequence number, starting at 000001. The sequence lives in a
// counter row bumped inside the caller's write transaction, so allocation is
// serialized and never re-derived from existing rows once the counter exists.
func (s *MemberStore) NextMemberID(tx *sql.Tx, prefix string) (string, error) {
	var n int64
	err := tx.QueryRow(
		`UPDATE member_id_seq SET last = last + 1 WHERE prefix = ? RETURNING last`,
		prefix,
	).Scan(&n)
	if err == sql.ErrNoRows {
		n, err = s.seedSequence(tx, prefix)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%0*d", prefix, memberIDPad, n), nil
}

// seedSequence creates the counter row for a prefix, starting one past the
// most recently inserted member id. A last id that lacks the prefix or a
// numeric suffix means the table holds corrupt data; the request fails
// rather than guessing a sequence position.
func (s *MemberStore) seedSequence(tx *sql.Tx, prefix string) (int64, error) {
	var lastID string
	err := tx.QueryRow(`SELECT member_id FROM members ORDER BY id DESC LIMIT 1`).Scan(&lastID)

	var n int64
	switch {
	case err == sql.ErrNoRows:
		n = 0
	case err != nil:
		return 0, fmt.Errorf("query last member id: %w", err)
	default:
		if !strings.HasPrefix(lastID, prefix) {
			return 0, fmt.Errorf("%w: %q", ErrIDFormat, lastID)
		}
		n, err = strconv.ParseInt(lastID[len(prefix):], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrIDParse, lastID)
		}
	}

	if _, err := tx.Exec(`INSERT INTO member_id_seq (prefix, last) VALUES (?, ?)`, prefix, n+1); err != nil {
		return 0, fmt.Errorf("seed member id sequence: %w", err)
	}
	return n + 1, nil
}

// Insert writes a new member row. The unique indexes on name and member_id
// reject duplicates; callers classify those constraint errors.
func (s *MemberStore) Insert(tx *sql.Tx, m *model.Member) error {
	var sponsorID sql.NullInt64
	if m.SponsorID != nil {
		sponsorID = sql.NullInt64{Int64: *m.SponsorID, Valid: true}
	}
	result, err := tx.Exec(
		`INSERT INTO members (name, member_id, contact, email, membership_type, level, address, sponsor_id, sponsor_name, regional_manager, area_region)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.MemberID, m.Contact, m.Email, m.MembershipType,
		m.Level, m.Address, sponsorID, m.SponsorName, m.RegionalManager, m.AreaRegion,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	return nil
}

// Promote upgrades a base-tier sponsor to Distributor. It reports whether a
// row actually changed, so repeated calls are a no-op.
func (s *MemberStore) Promote(tx *sql.Tx, name string) (bool, error) {
	result, err := tx.Exec(
		`UPDATE members SET membership_type = ? WHERE name = ? AND membership_type = ?`,
		model.TypeDistributor, name, model.TypeMember,
	)
	if err != nil {
		return false, fmt.Errorf("promote member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
