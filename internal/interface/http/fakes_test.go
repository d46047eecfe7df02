package handlers

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
	repo "github.com/oksasatya/job-tracker/internal/domain/repository"
)

type userStore struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newUserStore() *userStore { return &userStore{users: map[string]entity.User{}} }

func (s *userStore) Create(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = "u" + strconv.Itoa(len(s.users)+1)
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	s.users[u.ID] = *u
	return nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == entity.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *userStore) Update(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *userStore) SetResetCode(context.Context, string, string, time.Time) error { return nil }
func (s *userStore) ClearResetCode(context.Context, string, string) (bool, error) { return false, nil }
func (s *userStore) IncrementResetAttempts(context.Context, string, string) (int, error) {
	return 0, nil
}
func (s *userStore) CompleteReset(context.Context, string, string, string) (bool, error) {
	return false, nil
}

type jobStore struct {
	mu   sync.Mutex
	jobs []entity.Job
}

func (s *jobStore) Create(_ context.Context, j *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = "j" + strconv.Itoa(len(s.jobs)+1)
	j.CreatedAt = time.Now()
	s.jobs = append(s.jobs, *j)
	return nil
}

func (s *jobStore) find(userID, id string) int {
	for i, j := range s.jobs {
		if j.ID == id && j.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *jobStore) GetByID(_ context.Context, userID, id string) (*entity.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, id)
	if i < 0 {
		return nil, repo.ErrNotFound
	}
	j := s.jobs[i]
	return &j, nil
}

func (s *jobStore) ListByUser(_ context.Context, userID string) ([]entity.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.Job{}
	for i := len(s.jobs) - 1; i >= 0; i-- {
		if s.jobs[i].UserID == userID {
			out = append(out, s.jobs[i])
		}
	}
	return out, nil
}

func (s *jobStore) Update(_ context.Context, j *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(j.UserID, j.ID)
	if i < 0 {
		return repo.ErrNotFound
	}
	s.jobs[i] = *j
	return nil
}

func (s *jobStore) Delete(_ context.Context, userID, id string) (*entity.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, id)
	if i < 0 {
		return nil, repo.ErrNotFound
	}
	j := s.jobs[i]
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	return &j, nil
}

func (s *jobStore) CountByStatus(_ context.Context, userID string) (map[entity.JobStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[entity.JobStatus]int{}
	for _, st := range entity.JobStatuses {
		out[st] = 0
	}
	for _, j := range s.jobs {
		if j.UserID == userID {
			out[j.Status]++
		}
	}
	return out, nil
}
