package faqrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

const questionColumns = "id, question_text, asking_user_id, eligible_doctor_ids, answers, is_deleted, status, modified_by, modified_on, created_on"

// PostgresRepository implements faq.QuestionRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new question row.
func (r *PostgresRepository) Create(ctx context.Context, q faq.Question) error {
	answers, err := encodeAnswers(q.Answers)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO faqs (id, question_text, asking_user_id, eligible_doctor_ids, answers, is_deleted, status, created_on)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
	`, q.ID, q.QuestionText, q.AskingUserID, nonNilStrings(q.EligibleDoctorIDs), answers, q.IsDeleted, int16(q.Status), q.CreatedOn)
	return err
}

// FindByID fetches by primary key.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (faq.Question, bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM faqs WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return faq.Question{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return faq.Question{}, false, rows.Err()
	}
	q, err := scanQuestion(rows)
	if err != nil {
		return faq.Question{}, false, err
	}
	return q, true, rows.Err()
}

// Find lists questions newest first.
func (r *PostgresRepository) Find(ctx context.Context, filter faq.QuestionFilter, page faq.Page) ([]faq.Question, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + questionColumns + ` FROM faqs` + where + ` ORDER BY created_on DESC, id DESC`
	query, args = appendPaging(query, args, page)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]faq.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Count returns the number of questions matching filter.
func (r *PostgresRepository) Count(ctx context.Context, filter faq.QuestionFilter) (int64, error) {
	where, args := buildWhere(filter)
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM faqs`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// AppendAnswer concatenates the answer onto the JSONB array in one statement.
func (r *PostgresRepository) AppendAnswer(ctx context.Context, id string, answer faq.Answer) (faq.Question, bool, error) {
	payload, err := encodeAnswers([]faq.Answer{answer})
	if err != nil {
		return faq.Question{}, false, err
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE faqs SET answers = answers || $2::jsonb
		WHERE id = $1
		RETURNING `+questionColumns, id, payload)
	if err != nil {
		return faq.Question{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return faq.Question{}, false, rows.Err()
	}
	q, err := scanQuestion(rows)
	if err != nil {
		return faq.Question{}, false, err
	}
	return q, true, rows.Err()
}

// SoftDelete flags the row deleted and returns the row as it was before.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id, modifiedBy string, modifiedOn time.Time) (faq.Question, bool, error) {
	rows, err := r.pool.Query(ctx, `
		WITH before AS (
			SELECT `+questionColumns+` FROM faqs WHERE id = $1 FOR UPDATE
		)
		UPDATE faqs f SET is_deleted = TRUE, modified_by = $2, modified_on = $3
		FROM before
		WHERE f.id = before.id
		RETURNING `+prefixColumns("before", questionColumns), id, modifiedBy, modifiedOn)
	if err != nil {
		return faq.Question{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return faq.Question{}, false, rows.Err()
	}
	q, err := scanQuestion(rows)
	if err != nil {
		return faq.Question{}, false, err
	}
	return q, true, rows.Err()
}

func buildWhere(filter faq.QuestionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.ExcludeDeleted {
		clauses = append(clauses, "is_deleted = FALSE")
	}
	if filter.Status != nil {
		args = append(args, int16(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AskingUserID != "" {
		args = append(args, filter.AskingUserID)
		clauses = append(clauses, fmt.Sprintf("asking_user_id = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func appendPaging(query string, args []any, page faq.Page) (string, []any) {
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if page.Skip > 0 {
		args = append(args, page.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func prefixColumns(table, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = table + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (faq.Question, error) {
	var (
		q          faq.Question
		answersRaw []byte
		status     int16
		modifiedBy *string
	)
	if err := row.Scan(&q.ID, &q.QuestionText, &q.AskingUserID, &q.EligibleDoctorIDs, &answersRaw, &q.IsDeleted, &status, &modifiedBy, &q.ModifiedOn, &q.CreatedOn); err != nil {
		return faq.Question{}, err
	}
	q.Status = faq.Status(status)
	if modifiedBy != nil {
		q.ModifiedBy = *modifiedBy
	}
	q.EligibleDoctorIDs = nonNilStrings(q.EligibleDoctorIDs)
	q.Answers = []faq.Answer{}
	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &q.Answers); err != nil {
			return faq.Question{}, fmt.Errorf("decode answers: %w", err)
		}
	}
	return q, nil
}

func encodeAnswers(answers []faq.Answer) (string, error) {
	if answers == nil {
		answers = []faq.Answer{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

var _ faq.QuestionRepository = (*PostgresRepository)(nil)
