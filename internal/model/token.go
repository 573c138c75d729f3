package model

import "time"

// TokenManager issues and verifies signed access tokens bound to a user ID.
type TokenManager interface {
	// Issue signs a token for subjectID. A non-positive ttl selects the
	// configured default lifetime.
	Issue(subjectID int64, ttl time.Duration) (string, error)
	// Verify returns the subject of a valid token or an error wrapping
	// ErrInvalidToken.
	Verify(token string) (int64, error)
}
