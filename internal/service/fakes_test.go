package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dtroode/otptasks-server/internal/model"
)

// memUserStore is an in-memory model.UserStore used to check multi-step flows.
type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]model.User)}
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *memUserStore) GetByEmailForUpdate(ctx context.Context, email string) (model.User, error) {
	return s.GetByEmail(ctx, email)
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Nickname == user.Nickname {
			return model.User{}, model.ErrConflict
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	return user, nil
}

func (s *memUserStore) SetOTP(_ context.Context, userID int64, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.OTPCode = &code
	u.OTPExpiresAt = &expiresAt
	s.users[userID] = u
	return nil
}

func (s *memUserStore) ConsumeOTP(_ context.Context, userID int64, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.OTPCode == nil || *u.OTPCode != code {
		return model.ErrInvalidState
	}
	u.OTPCode = nil
	u.OTPExpiresAt = nil
	s.users[userID] = u
	return nil
}

// seqCodes returns predefined codes in order.
type seqCodes struct {
	codes []string
	next  int
}

func (g *seqCodes) Generate() (string, error) {
	if g.next >= len(g.codes) {
		return "", fmt.Errorf("no more codes")
	}
	c := g.codes[g.next]
	g.next++
	return c, nil
}

type sentCode struct {
	user      model.UserProfile
	code      string
	expiresAt time.Time
}

// recordingSender keeps every delivered code.
type recordingSender struct {
	sent []sentCode
	err  error
}

func (s *recordingSender) Send(_ context.Context, user model.UserProfile, code string, expiresAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentCode{user: user, code: code, expiresAt: expiresAt})
	return nil
}

// countingObserver counts auto-completed tasks.
type countingObserver struct {
	total int64
}

func (o *countingObserver) TasksAutoCompleted(n int64) {
	o.total += n
}
