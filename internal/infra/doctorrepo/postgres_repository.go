package doctorrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// PostgresRepository reads doctors from Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListActiveIDs returns ids of doctors not marked deleted.
func (r *PostgresRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM doctors WHERE is_deleted = FALSE ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindByID fetches by primary key, deleted doctors included.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (faq.Doctor, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, profile_image, is_deleted
		FROM doctors
		WHERE id = $1
		LIMIT 1
	`, id)
	if err != nil {
		return faq.Doctor{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return faq.Doctor{}, false, rows.Err()
	}
	doctor, err := scanDoctor(rows)
	if err != nil {
		return faq.Doctor{}, false, err
	}
	return doctor, true, rows.Err()
}

// FindByIDs fetches every doctor whose id is listed.
func (r *PostgresRepository) FindByIDs(ctx context.Context, ids []string) ([]faq.Doctor, error) {
	if len(ids) == 0 {
		return []faq.Doctor{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, profile_image, is_deleted
		FROM doctors
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]faq.Doctor, 0, len(ids))
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doctor)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row rowScanner) (faq.Doctor, error) {
	var (
		d     faq.Doctor
		image *string
	)
	if err := row.Scan(&d.ID, &d.Name, &image, &d.IsDeleted); err != nil {
		return faq.Doctor{}, err
	}
	if image != nil {
		d.ProfileImage = *image
	}
	return d, nil
}

var _ faq.DoctorRepository = (*PostgresRepository)(nil)
