package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/otptasks-server/internal/model"
)

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey  []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	now        func() time.Time
}

var _ model.TokenManager = (*JWT)(nil)

// Option configures a JWT manager.
type Option func(*JWT)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// NewJWT creates a JWT token manager signing with the named HMAC algorithm.
func NewJWT(secretKey, algorithm string, defaultTTL time.Duration, opts ...Option) (*JWT, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	j := &JWT{
		secretKey:  []byte(secretKey),
		method:     method,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// Issue creates an access token for subjectID.
func (j *JWT) Issue(subjectID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = j.defaultTTL
	}

	now := j.now().UTC()
	token := jwt.NewWithClaims(j.method, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subjectID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// Verify validates signature and expiry and returns the token subject.
func (j *JWT) Verify(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, model.ErrInvalidToken
	}

	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject", model.ErrInvalidToken)
	}

	return subjectID, nil
}
