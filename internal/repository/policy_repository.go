package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PolicyRepository stores SLA policies. The week table and priority targets
// are persisted as JSON documents; pause statuses as a text array.
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.SLAPolicy) error
	GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error)
	List(ctx context.Context) ([]domain.SLAPolicy, error)
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

func (r *policyRepository) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	targets, err := json.Marshal(policy.Targets)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}
	week, err := json.Marshal(policy.Week)
	if err != nil {
		return fmt.Errorf("marshal week: %w", err)
	}
	const query = `
        INSERT INTO sla_policies (name, active, timezone, targets, week, holiday_calendar_id, pause_statuses)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		policy.Name,
		policy.Active,
		policy.Timezone,
		targets,
		week,
		policy.HolidayCalendarID,
		statusesToStrings(policy.PauseStatuses),
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

func (r *policyRepository) GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	const query = `
        SELECT id, name, active, timezone, targets, week, holiday_calendar_id, pause_statuses,
               created_at, updated_at
        FROM sla_policies WHERE id=$1`
	var (
		policy   domain.SLAPolicy
		targets  []byte
		week     []byte
		statuses []string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&policy.ID,
		&policy.Name,
		&policy.Active,
		&policy.Timezone,
		&targets,
		&week,
		&policy.HolidayCalendarID,
		&statuses,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(targets, &policy.Targets); err != nil {
		return nil, fmt.Errorf("unmarshal targets: %w", err)
	}
	if err := json.Unmarshal(week, &policy.Week); err != nil {
		return nil, fmt.Errorf("unmarshal week: %w", err)
	}
	policy.PauseStatuses = stringsToStatuses(statuses)
	return &policy, nil
}

func (r *policyRepository) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	const query = `
        SELECT id, name, active, timezone, targets, week, holiday_calendar_id, pause_statuses,
               created_at, updated_at
        FROM sla_policies ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var (
			policy   domain.SLAPolicy
			targets  []byte
			week     []byte
			statuses []string
		)
		if err := rows.Scan(
			&policy.ID,
			&policy.Name,
			&policy.Active,
			&policy.Timezone,
			&targets,
			&week,
			&policy.HolidayCalendarID,
			&statuses,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(targets, &policy.Targets); err != nil {
			return nil, fmt.Errorf("unmarshal targets: %w", err)
		}
		if err := json.Unmarshal(week, &policy.Week); err != nil {
			return nil, fmt.Errorf("unmarshal week: %w", err)
		}
		policy.PauseStatuses = stringsToStatuses(statuses)
		result = append(result, policy)
	}
	return result, rows.Err()
}

func statusesToStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func stringsToStatuses(values []string) []domain.TicketStatus {
	out := make([]domain.TicketStatus, 0, len(values))
	for _, v := range values {
		out = append(out, domain.TicketStatus(v))
	}
	return out
}
