package userrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// PostgresRepository reads users from Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindByIDs projects id and name for every listed user.
func (r *PostgresRepository) FindByIDs(ctx context.Context, ids []string) ([]faq.User, error) {
	if len(ids) == 0 {
		return []faq.User{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name
		FROM users
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]faq.User, 0, len(ids))
	for rows.Next() {
		var u faq.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

var _ faq.UserRepository = (*PostgresRepository)(nil)
