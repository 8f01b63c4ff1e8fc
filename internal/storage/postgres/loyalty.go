package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
)

const (
	programColumns = `id, name, description, duration_type, duration_value, benefits, is_group, color, created_at`

	createProgramSQL = `INSERT INTO loyalty_programs (` + programColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getProgramSQL = `SELECT ` + programColumns + ` FROM loyalty_programs WHERE id = $1`

	listProgramsSQL = `SELECT ` + programColumns + ` FROM loyalty_programs ORDER BY created_at, id`

	updateProgramSQL = `UPDATE loyalty_programs SET
			name = $2, description = $3, duration_type = $4, duration_value = $5,
			benefits = $6, is_group = $7, color = $8
		WHERE id = $1`

	deleteProgramSQL = `DELETE FROM loyalty_programs WHERE id = $1`

	membershipColumns = `id, customer_id, program_id, program_name, start_date, end_date, status, benefits`

	createMembershipSQL = `INSERT INTO customer_memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getMembershipSQL = `SELECT ` + membershipColumns + ` FROM customer_memberships WHERE id = $1`

	findActiveSQL = `SELECT ` + membershipColumns + ` FROM customer_memberships
		WHERE customer_id = $1 AND status = 'active'
		ORDER BY start_date DESC, id DESC LIMIT 1`

	findActiveInProgramSQL = `SELECT ` + membershipColumns + ` FROM customer_memberships
		WHERE customer_id = $1 AND program_id = $2 AND status = 'active'
		ORDER BY start_date DESC, id DESC LIMIT 1`

	listMembershipsSQL = `SELECT ` + membershipColumns + ` FROM customer_memberships
		WHERE ($1::text = '' OR status = $1)
			AND ($2::text = '' OR customer_id = $2)
			AND ($3::text = '' OR program_id = $3)
		ORDER BY start_date DESC, id DESC`

	setMembershipStatusSQL = `UPDATE customer_memberships SET status = $2 WHERE id = $1`

	cancelActiveInProgramSQL = `UPDATE customer_memberships SET status = 'cancelled'
		WHERE program_id = $1 AND status = 'active'`

	syncActiveInProgramSQL = `UPDATE customer_memberships SET program_name = $2, benefits = $3
		WHERE program_id = $1 AND status = 'active'`
)

var (
	_ loyalty.ProgramRepository    = (*LoyaltyRepository)(nil)
	_ loyalty.MembershipRepository = (*LoyaltyRepository)(nil)
)

// LoyaltyRepository stores programs and customer memberships. Benefits are
// JSONB arrays on both tables.
type LoyaltyRepository struct {
	pool *pgxpool.Pool
}

// NewLoyaltyRepository returns a LoyaltyRepository that uses the given pool.
func NewLoyaltyRepository(pool *pgxpool.Pool) *LoyaltyRepository {
	return &LoyaltyRepository{pool: pool}
}

func (r *LoyaltyRepository) CreateProgram(ctx context.Context, p *loyalty.Program) error {
	benefits, err := marshalBenefits(p.Benefits)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, createProgramSQL,
		p.ID, p.Name, p.Description, string(p.DurationType), p.DurationValue,
		benefits, p.IsGroup, p.Color, p.CreatedAt,
	); err != nil {
		return fmt.Errorf("creating program %q: %w", p.ID, err)
	}
	return nil
}

func (r *LoyaltyRepository) GetProgram(ctx context.Context, id string) (*loyalty.Program, error) {
	rows, err := r.pool.Query(ctx, getProgramSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting program %q: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProgram)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loyalty.ErrProgramNotFound
		}
		return nil, fmt.Errorf("getting program %q: %w", id, err)
	}
	return &p, nil
}

func (r *LoyaltyRepository) ListPrograms(ctx context.Context) ([]loyalty.Program, error) {
	rows, err := r.pool.Query(ctx, listProgramsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	return pgx.CollectRows(rows, scanProgram)
}

func (r *LoyaltyRepository) UpdateProgram(ctx context.Context, p *loyalty.Program) error {
	benefits, err := marshalBenefits(p.Benefits)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, updateProgramSQL,
		p.ID, p.Name, p.Description, string(p.DurationType), p.DurationValue,
		benefits, p.IsGroup, p.Color,
	)
	if err != nil {
		return fmt.Errorf("updating program %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return loyalty.ErrProgramNotFound
	}
	return nil
}

func (r *LoyaltyRepository) DeleteProgram(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProgramSQL, id)
	if err != nil {
		return fmt.Errorf("deleting program %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return loyalty.ErrProgramNotFound
	}
	return nil
}

func (r *LoyaltyRepository) CreateMembership(ctx context.Context, m *loyalty.Membership) error {
	benefits, err := marshalBenefits(m.Benefits)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, createMembershipSQL,
		m.ID, m.CustomerID, m.ProgramID, m.ProgramName, m.StartDate, m.EndDate,
		string(m.Status), benefits,
	); err != nil {
		return fmt.Errorf("creating membership %q: %w", m.ID, err)
	}
	return nil
}

func (r *LoyaltyRepository) GetMembership(ctx context.Context, id string) (*loyalty.Membership, error) {
	return r.oneMembership(ctx, getMembershipSQL, id)
}

func (r *LoyaltyRepository) FindActive(ctx context.Context, customerID string) (*loyalty.Membership, error) {
	return r.oneMembership(ctx, findActiveSQL, customerID)
}

func (r *LoyaltyRepository) FindActiveInProgram(ctx context.Context, customerID, programID string) (*loyalty.Membership, error) {
	return r.oneMembership(ctx, findActiveInProgramSQL, customerID, programID)
}

func (r *LoyaltyRepository) oneMembership(ctx context.Context, sql string, args ...any) (*loyalty.Membership, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying membership %v: %w", args, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMembership)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loyalty.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("querying membership %v: %w", args, err)
	}
	return &m, nil
}

func (r *LoyaltyRepository) ListMemberships(ctx context.Context, filter loyalty.MembershipFilter) ([]loyalty.Membership, error) {
	rows, err := r.pool.Query(ctx, listMembershipsSQL,
		string(filter.Status), filter.CustomerID, filter.ProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	return pgx.CollectRows(rows, scanMembership)
}

func (r *LoyaltyRepository) SetStatus(ctx context.Context, id string, status loyalty.MembershipStatus) error {
	tag, err := r.pool.Exec(ctx, setMembershipStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("setting membership %q to %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return loyalty.ErrMembershipNotFound
	}
	return nil
}

func (r *LoyaltyRepository) CancelActiveInProgram(ctx context.Context, programID string) (int, error) {
	tag, err := r.pool.Exec(ctx, cancelActiveInProgramSQL, programID)
	if err != nil {
		return 0, fmt.Errorf("cancelling memberships of %q: %w", programID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *LoyaltyRepository) SyncActiveInProgram(ctx context.Context, programID, name string, benefits []loyalty.Benefit) error {
	data, err := marshalBenefits(benefits)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, syncActiveInProgramSQL, programID, name, data); err != nil {
		return fmt.Errorf("syncing memberships of %q: %w", programID, err)
	}
	return nil
}

func marshalBenefits(bs []loyalty.Benefit) ([]byte, error) {
	if bs == nil {
		bs = []loyalty.Benefit{}
	}
	data, err := json.Marshal(bs)
	if err != nil {
		return nil, fmt.Errorf("marshaling benefits: %w", err)
	}
	return data, nil
}

func scanProgram(row pgx.CollectableRow) (loyalty.Program, error) {
	var (
		p            loyalty.Program
		durationType string
		benefits     []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &durationType, &p.DurationValue,
		&benefits, &p.IsGroup, &p.Color, &p.CreatedAt,
	); err != nil {
		return p, err
	}
	p.DurationType = loyalty.DurationType(durationType)
	if err := json.Unmarshal(benefits, &p.Benefits); err != nil {
		return p, fmt.Errorf("unmarshaling benefits of program %q: %w", p.ID, err)
	}
	return p, nil
}

func scanMembership(row pgx.CollectableRow) (loyalty.Membership, error) {
	var (
		m        loyalty.Membership
		status   string
		benefits []byte
	)
	if err := row.Scan(
		&m.ID, &m.CustomerID, &m.ProgramID, &m.ProgramName,
		&m.StartDate, &m.EndDate, &status, &benefits,
	); err != nil {
		return m, err
	}
	m.Status = loyalty.MembershipStatus(status)
	if err := json.Unmarshal(benefits, &m.Benefits); err != nil {
		return m, fmt.Errorf("unmarshaling benefits of membership %q: %w", m.ID, err)
	}
	return m, nil
}
