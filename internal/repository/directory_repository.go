package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserDirectory resolves role names to user ids. The directory itself is an
// external collaborator; this repository reads the role membership table it
// replicates into the engine's store.
type UserDirectory interface {
	ResolveUsersByRole(ctx context.Context, roles []string) ([]string, error)
}

type userDirectory struct {
	pool *pgxpool.Pool
}

// NewUserDirectory instantiates the pg-backed directory.
func NewUserDirectory(pool *pgxpool.Pool) UserDirectory {
	return &userDirectory{pool: pool}
}

func (d *userDirectory) ResolveUsersByRole(ctx context.Context, roles []string) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT user_id FROM role_members WHERE role = ANY($1) ORDER BY user_id`
	rows, err := d.pool.Query(ctx, query, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}
