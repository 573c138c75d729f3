package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/otptasks-server/internal/api/http/handler"
	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/model"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	CurrentUser(ctx context.Context, users model.UserStore, token string) (model.User, error)
}

// Authenticate validates bearer tokens and injects the user into the request context.
type Authenticate struct {
	authenticator  Authenticator
	transactor     model.Transactor
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(
	authenticator Authenticator,
	transactor model.Transactor,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Authenticate {
	return &Authenticate{
		authenticator:  authenticator,
		transactor:     transactor,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Handle rejects requests without a valid bearer token with 401.
func (m *Authenticate) Handle(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		handler.AbortWithError(c, model.ErrUnauthorized)
		return
	}

	var user model.User
	err := m.transactor.WithinTx(c.Request.Context(), func(ctx context.Context, stores model.Stores) error {
		var err error
		user, err = m.authenticator.CurrentUser(ctx, stores.Users, token)
		return err
	})
	if err != nil {
		if !errors.Is(err, model.ErrUnauthorized) {
			m.logger.Error("Authenticate middleware: failed to resolve token",
				"error", err.Error())
		}
		handler.AbortWithError(c, err)
		return
	}

	c.Request = c.Request.WithContext(m.contextManager.SetUserToContext(c.Request.Context(), user))
	c.Next()
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
