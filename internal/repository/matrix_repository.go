package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// MatrixRepository stores the escalation matrix. Replace swaps the whole rule
// set atomically so the matrix invariants always hold for readers.
type MatrixRepository interface {
	Replace(ctx context.Context, rules []domain.EscalationRule) error
	List(ctx context.Context) (domain.EscalationMatrix, error)
}

type matrixRepository struct {
	pool *pgxpool.Pool
}

// NewMatrixRepository instantiates repository.
func NewMatrixRepository(pool *pgxpool.Pool) MatrixRepository {
	return &matrixRepository{pool: pool}
}

func (r *matrixRepository) Replace(ctx context.Context, rules []domain.EscalationRule) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM escalation_rules`); err != nil {
			return err
		}
		const insert = `
            INSERT INTO escalation_rules (level, trigger, warning_threshold_pct, notify_roles,
                notify_users, channel, reassign_to, add_watcher, bump_priority, lock_override)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
            RETURNING id, created_at`
		for i := range rules {
			rule := &rules[i]
			if err := tx.QueryRow(ctx, insert,
				rule.Level,
				rule.Trigger,
				rule.WarningThresholdPct,
				rule.NotifyRoles,
				rule.NotifyUsers,
				rule.Channel,
				rule.ReassignTo,
				rule.AddWatcher,
				rule.BumpPriority,
				rule.LockOverride,
			).Scan(&rule.ID, &rule.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *matrixRepository) List(ctx context.Context) (domain.EscalationMatrix, error) {
	const query = `
        SELECT id, level, trigger, warning_threshold_pct, notify_roles, notify_users,
               channel, reassign_to, add_watcher, bump_priority, lock_override, created_at
        FROM escalation_rules ORDER BY level ASC, trigger ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matrix domain.EscalationMatrix
	for rows.Next() {
		var rule domain.EscalationRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Level,
			&rule.Trigger,
			&rule.WarningThresholdPct,
			&rule.NotifyRoles,
			&rule.NotifyUsers,
			&rule.Channel,
			&rule.ReassignTo,
			&rule.AddWatcher,
			&rule.BumpPriority,
			&rule.LockOverride,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		matrix = append(matrix, rule)
	}
	return matrix, rows.Err()
}
