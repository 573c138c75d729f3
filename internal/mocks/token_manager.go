package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// TokenManager is a testify mock of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

// NewTokenManager creates a TokenManager mock that asserts its expectations on cleanup.
func NewTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TokenManager) Issue(subjectID int64, ttl time.Duration) (string, error) {
	args := m.Called(subjectID, ttl)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) Verify(token string) (int64, error) {
	args := m.Called(token)
	return args.Get(0).(int64), args.Error(1)
}
