package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/model"
)

// TokenService issues access tokens and resolves them back to users.
type TokenService struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, logger: logger}
}

// Issue creates an access token with the default lifetime.
func (s *TokenService) Issue(userID int64) (string, error) {
	token, err := s.manager.Issue(userID, 0)
	if err != nil {
		return "", fmt.Errorf("issue access: %w", err)
	}
	return token, nil
}

// Authenticate verifies the token and loads its subject. Every failure is
// reported as ErrUnauthorized so callers cannot tell the causes apart.
func (s *TokenService) Authenticate(ctx context.Context, users model.UserStore, token string) (model.User, error) {
	userID, err := s.manager.Verify(token)
	if err != nil {
		s.logger.Debug("Token service: token rejected",
			"error", err.Error())
		return model.User{}, model.ErrUnauthorized
	}

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Info("Token service: token subject no longer exists",
				"user_id", userID)
			return model.User{}, model.ErrUnauthorized
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}
