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

const userColumns = `id, email, password_hash, name, reset_code, reset_code_expiry, reset_attempts, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	u.Email = entity.NormalizeEmail(u.Email)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, entity.NormalizeEmail(email))
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, query, arg)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.ResetCode, &u.ResetCodeExpiry,
		&u.ResetAttempts, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// Update writes the whole record, reset fields included.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, name = $3,
		    reset_code = $4, reset_code_expiry = $5, reset_attempts = $6, updated_at = $7
		WHERE id = $8
	`, entity.NormalizeEmail(u.Email), u.Password, u.Name, u.ResetCode, u.ResetCodeExpiry, u.ResetAttempts, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) SetResetCode(ctx context.Context, userID, code string, expiry time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_code = $1, reset_code_expiry = $2, reset_attempts = 0, updated_at = now()
		WHERE id = $3
	`, code, expiry, userID)
	if err != nil {
		return fmt.Errorf("set reset code: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetCode(ctx context.Context, userID, code string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_code = NULL, reset_code_expiry = NULL, reset_attempts = 0, updated_at = now()
		WHERE id = $1 AND reset_code = $2
	`, userID, code)
	if err != nil {
		return false, fmt.Errorf("clear reset code: %w", err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *UserRepository) IncrementResetAttempts(ctx context.Context, userID, code string) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET reset_attempts = reset_attempts + 1, updated_at = now()
		WHERE id = $1 AND reset_code = $2
		RETURNING reset_attempts
	`, userID, code).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment reset attempts: %w", err)
	}
	return attempts, nil
}

func (r *UserRepository) CompleteReset(ctx context.Context, userID, code, passwordHash string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, reset_code = NULL, reset_code_expiry = NULL, reset_attempts = 0, updated_at = now()
		WHERE id = $2 AND reset_code = $3
	`, passwordHash, userID, code)
	if err != nil {
		return false, fmt.Errorf("complete reset: %w", err)
	}
	return res.RowsAffected() == 1, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
