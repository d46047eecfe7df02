package application

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/oksasatya/job-tracker/internal/domain/entity"
	repo "github.com/oksasatya/job-tracker/internal/domain/repository"
)

type memUsers struct {
	mu    sync.Mutex
	seq   int
	byID  map[string]*entity.User
	calls map[string]int
}

func newMemUsers(users ...*entity.User) *memUsers {
	m := &memUsers{byID: map[string]*entity.User{}, calls: map[string]int{}}
	for _, u := range users {
		_ = m.Create(context.Background(), u)
	}
	return m
}

func clone(u *entity.User) *entity.User {
	c := *u
	if u.ResetCode != nil {
		code := *u.ResetCode
		c.ResetCode = &code
	}
	if u.ResetCodeExpiry != nil {
		exp := *u.ResetCodeExpiry
		c.ResetCodeExpiry = &exp
	}
	return &c
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = entity.NormalizeEmail(u.Email)
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	m.seq++
	if u.ID == "" {
		u.ID = "u" + strconv.Itoa(m.seq)
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = clone(u)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clone(u), nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = entity.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return repo.ErrNotFound
	}
	m.byID[u.ID] = clone(u)
	return nil
}

func (m *memUsers) SetResetCode(_ context.Context, userID, code string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["set"]++
	u, ok := m.byID[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.SetPendingReset(code, expiry)
	return nil
}

func (m *memUsers) ClearResetCode(_ context.Context, userID, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["clear"]++
	u, ok := m.byID[userID]
	if !ok || u.ResetCode == nil || *u.ResetCode != code {
		return false, nil
	}
	u.ClearPendingReset()
	return true, nil
}

func (m *memUsers) IncrementResetAttempts(_ context.Context, userID, code string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok || u.ResetCode == nil || *u.ResetCode != code {
		return 0, repo.ErrNotFound
	}
	u.ResetAttempts++
	return u.ResetAttempts, nil
}

func (m *memUsers) CompleteReset(_ context.Context, userID, code, passwordHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok || u.ResetCode == nil || *u.ResetCode != code {
		return false, nil
	}
	u.Password = passwordHash
	u.ClearPendingReset()
	return true, nil
}

type sentCode struct {
	To        string
	Code      string
	ExpiresAt time.Time
	IP        string
}

type fakeCodeSender struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeCodeSender) SendResetCode(_ context.Context, to, _, code string, expiresAt time.Time, ip, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentCode{To: to, Code: code, ExpiresAt: expiresAt, IP: ip})
	return f.err
}

func (f *fakeCodeSender) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// codes returns a generator that yields the given codes in order.
func codes(cs ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := cs[i%len(cs)]
		i++
		return c, nil
	}
}

func plainHash(p string) (string, error) { return "hashed:" + p, nil }
