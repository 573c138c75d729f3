package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/model"
)

// maxNicknameAttempts bounds the suffix search for a free nickname.
const maxNicknameAttempts = 20

// nicknameMaxLen matches the users.nickname column width.
const nicknameMaxLen = 50

// CodeGenerator produces one-time codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// Auth implements the one-time password login flow.
type Auth struct {
	codes        CodeGenerator
	sender       model.OTPSender
	tokenService *TokenService
	otpTTL       time.Duration
	now          func() time.Time
	logger       *logger.Logger
}

func NewAuth(
	codes CodeGenerator,
	sender model.OTPSender,
	tokenService *TokenService,
	otpTTL time.Duration,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		codes:        codes,
		sender:       sender,
		tokenService: tokenService,
		otpTTL:       otpTTL,
		now:          time.Now,
		logger:       logger,
	}
}

// RequestChallenge issues a fresh code for email, creating the user on first
// contact. Any code still outstanding for the user is replaced.
func (a *Auth) RequestChallenge(ctx context.Context, users model.UserStore, email string) (model.Challenge, error) {
	a.logger.Debug("Auth service: otp requested",
		"email", email)

	user, created, err := a.findOrCreateUser(ctx, users, email)
	if err != nil {
		return model.Challenge{}, err
	}

	code, err := a.codes.Generate()
	if err != nil {
		return model.Challenge{}, fmt.Errorf("failed to generate otp: %w", err)
	}
	expiresAt := a.now().UTC().Add(a.otpTTL)

	if err := users.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		a.logger.Error("Auth service: failed to store otp",
			"user_id", user.ID,
			"error", err.Error())
		return model.Challenge{}, fmt.Errorf("failed to store otp: %w", err)
	}

	if err := a.sender.Send(ctx, user.Profile(), code, expiresAt); err != nil {
		a.logger.Error("Auth service: failed to deliver otp",
			"user_id", user.ID,
			"error", err.Error())
		return model.Challenge{}, fmt.Errorf("failed to deliver otp: %w", err)
	}

	a.logger.Info("Auth service: otp issued",
		"user_id", user.ID,
		"user_created", created,
		"expires_at", expiresAt.Format(time.RFC3339))

	return model.Challenge{
		User:        user.Profile(),
		UserCreated: created,
		Code:        code,
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyChallenge exchanges a valid code for an access token. The code is
// cleared before the token is issued, so it can be used only once.
func (a *Auth) VerifyChallenge(ctx context.Context, users model.UserStore, email, code string) (string, error) {
	a.logger.Debug("Auth service: otp verification started",
		"email", email)

	user, err := users.GetByEmailForUpdate(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	if !user.HasActiveOTP() {
		return "", model.ErrInvalidState
	}
	if *user.OTPCode != code {
		a.logger.Info("Auth service: otp mismatch",
			"user_id", user.ID)
		return "", model.ErrInvalidCredential
	}
	if !a.now().UTC().Before(*user.OTPExpiresAt) {
		a.logger.Info("Auth service: otp expired",
			"user_id", user.ID)
		return "", model.ErrExpired
	}

	if err := users.ConsumeOTP(ctx, user.ID, code); err != nil {
		if errors.Is(err, model.ErrInvalidState) {
			return "", model.ErrInvalidState
		}
		return "", fmt.Errorf("failed to consume otp: %w", err)
	}

	accessToken, err := a.tokenService.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID)

	return accessToken, nil
}

// CurrentUser resolves the user a bearer token was issued for.
func (a *Auth) CurrentUser(ctx context.Context, users model.UserStore, accessToken string) (model.User, error) {
	return a.tokenService.Authenticate(ctx, users, accessToken)
}

func (a *Auth) findOrCreateUser(ctx context.Context, users model.UserStore, email string) (model.User, bool, error) {
	user, err := users.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, false, fmt.Errorf("failed to get user by email: %w", err)
	}

	base := NicknameFromEmail(email)
	for attempt := 1; attempt <= maxNicknameAttempts; attempt++ {
		created, err := users.Create(ctx, model.User{
			Nickname: nicknameCandidate(base, attempt),
			Email:    email,
		})
		if err == nil {
			a.logger.Info("Auth service: user created",
				"user_id", created.ID,
				"nickname", created.Nickname)
			return created, true, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return model.User{}, false, fmt.Errorf("failed to create user: %w", err)
		}

		// The conflict may come from a concurrent request for the same email.
		existing, err := users.GetByEmail(ctx, email)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, false, fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	return model.User{}, false, fmt.Errorf("no free nickname for %q: %w", base, model.ErrConflict)
}

// NicknameFromEmail returns the local part of email, the text before the
// first "@".
func NicknameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func nicknameCandidate(base string, attempt int) string {
	if attempt == 1 {
		return truncate(base, nicknameMaxLen)
	}
	suffix := strconv.Itoa(attempt)
	return truncate(base, nicknameMaxLen-len(suffix)) + suffix
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
