package repository

import (
	"context"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
)

// JobRepository persists job applications. Every read and write is scoped to the owning user.
type JobRepository interface {
	Create(ctx context.Context, j *entity.Job) error
	GetByID(ctx context.Context, userID, id string) (*entity.Job, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Job, error)
	Update(ctx context.Context, j *entity.Job) error
	Delete(ctx context.Context, userID, id string) (*entity.Job, error)
	CountByStatus(ctx context.Context, userID string) (map[entity.JobStatus]int, error)
}
