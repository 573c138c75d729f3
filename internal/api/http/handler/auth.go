package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/model"
)

const (
	detailOTPSent   = "OTP generated and sent."
	tokenTypeBearer = "bearer"
)

// AuthService defines the OTP login operations.
type AuthService interface {
	RequestChallenge(ctx context.Context, users model.UserStore, email string) (model.Challenge, error)
	VerifyChallenge(ctx context.Context, users model.UserStore, email, code string) (string, error)
}

// AuthMetrics records login activity.
type AuthMetrics interface {
	OTPIssued()
	LoginAttempt(result string)
}

// Auth handles the authentication endpoints.
type Auth struct {
	authService    AuthService
	transactor     model.Transactor
	contextManager model.ContextManager
	metrics        AuthMetrics
	echoOTP        bool
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler. When echoOTP is set the issued code is
// included in the challenge response.
func NewAuth(
	authService AuthService,
	transactor model.Transactor,
	contextManager model.ContextManager,
	metrics AuthMetrics,
	echoOTP bool,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService:    authService,
		transactor:     transactor,
		contextManager: contextManager,
		metrics:        metrics,
		echoOTP:        echoOTP,
		logger:         logger,
	}
}

// RequestOTP issues a one-time code for the email, creating the user if needed.
func (h *Auth) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithValidationError(c, err)
		return
	}

	h.logger.Debug("Auth handler: processing otp request",
		"email", req.Email)

	var challenge model.Challenge
	err := h.transactor.WithinTx(c.Request.Context(), func(ctx context.Context, stores model.Stores) error {
		var err error
		challenge, err = h.authService.RequestChallenge(ctx, stores.Users, req.Email)
		return err
	})
	if err != nil {
		h.logger.Error("Auth handler: otp request failed",
			"email", req.Email,
			"error", err.Error())
		AbortWithError(c, err)
		return
	}

	h.metrics.OTPIssued()

	resp := RequestOTPResponse{
		Detail:      detailOTPSent,
		User:        newUserResponse(challenge.User),
		UserCreated: challenge.UserCreated,
		ExpiresAt:   challenge.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}
	if h.echoOTP {
		resp.OTP = challenge.Code
	}

	c.JSON(http.StatusOK, resp)
}

// LoginOTP exchanges a valid code for an access token.
func (h *Auth) LoginOTP(c *gin.Context) {
	var req LoginOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithValidationError(c, err)
		return
	}

	h.logger.Debug("Auth handler: processing otp login",
		"email", req.Email)

	var accessToken string
	err := h.transactor.WithinTx(c.Request.Context(), func(ctx context.Context, stores model.Stores) error {
		var err error
		accessToken, err = h.authService.VerifyChallenge(ctx, stores.Users, req.Email, req.Code)
		return err
	})
	if err != nil {
		h.metrics.LoginAttempt(loginResult(err))
		h.logger.Info("Auth handler: otp login rejected",
			"email", req.Email,
			"error", err.Error())
		if errors.Is(err, model.ErrNotFound) {
			AbortWithDetail(c, http.StatusNotFound, detailUserNotFound)
			return
		}
		AbortWithError(c, err)
		return
	}

	h.metrics.LoginAttempt(loginResult(nil))

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
	})
}

// Me returns the profile of the authenticated user.
func (h *Auth) Me(c *gin.Context) {
	user, ok := h.contextManager.GetUserFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, model.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user.Profile()))
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrNotFound):
		return "unknown_user"
	case errors.Is(err, model.ErrInvalidState):
		return "no_active_otp"
	case errors.Is(err, model.ErrInvalidCredential):
		return "invalid_code"
	case errors.Is(err, model.ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
