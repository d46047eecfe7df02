package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
	"github.com/oksasatya/job-tracker/internal/domain/repository"
)

const jobColumns = `id, user_id, company, position, status, source, deadline, notes, resume_key, jd_key, created_at, updated_at`

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func scanJob(row pgx.Row) (*entity.Job, error) {
	j := &entity.Job{}
	var status string
	if err := row.Scan(&j.ID, &j.UserID, &j.Company, &j.Position, &status, &j.Source, &j.Deadline,
		&j.Notes, &j.ResumeKey, &j.JDKey, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = entity.JobStatus(status)
	return j, nil
}

func (r *JobRepository) Create(ctx context.Context, j *entity.Job) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO jobs (user_id, company, position, status, source, deadline, notes, resume_key, jd_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, j.UserID, j.Company, j.Position, string(j.Status), j.Source, j.Deadline, j.Notes, j.ResumeKey, j.JDKey)
	if err := row.Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, userID, id string) (*entity.Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}
	return j, nil
}

func (r *JobRepository) ListByUser(ctx context.Context, userID string) ([]entity.Job, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *JobRepository) Update(ctx context.Context, j *entity.Job) error {
	j.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET company = $1, position = $2, status = $3, source = $4, deadline = $5, notes = $6,
		    resume_key = $7, jd_key = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11
	`, j.Company, j.Position, string(j.Status), j.Source, j.Deadline, j.Notes, j.ResumeKey, j.JDKey, j.UpdatedAt, j.ID, j.UserID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the job and returns the deleted row so callers can drop its attachments.
func (r *JobRepository) Delete(ctx context.Context, userID, id string) (*entity.Job, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2 RETURNING `+jobColumns, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete job: %w", err)
	}
	return j, nil
}

func (r *JobRepository) CountByStatus(ctx context.Context, userID string) (map[entity.JobStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM jobs WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	out := make(map[entity.JobStatus]int, len(entity.JobStatuses))
	for _, s := range entity.JobStatuses {
		out[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[entity.JobStatus(status)] = n
	}
	return out, rows.Err()
}

var _ repository.JobRepository = (*JobRepository)(nil)
