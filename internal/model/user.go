package model

import (
	"context"
	"time"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	// GetByEmailForUpdate loads the user and locks its row until the
	// surrounding transaction ends.
	GetByEmailForUpdate(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	// Create inserts a user. ErrConflict is returned when the email or the
	// nickname is already taken.
	Create(ctx context.Context, user User) (User, error)
	SetOTP(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	// ConsumeOTP clears the outstanding code only if it still equals code.
	// ErrInvalidState is returned when nothing was cleared.
	ConsumeOTP(ctx context.Context, userID int64, code string) error
}

// User represents a stored user with its outstanding login challenge.
type User struct {
	ID           int64
	Nickname     string
	Email        string
	OTPCode      *string
	OTPExpiresAt *time.Time
}

// HasActiveOTP reports whether a challenge is outstanding.
// Code and expiry are always written together.
func (u User) HasActiveOTP() bool {
	return u.OTPCode != nil && u.OTPExpiresAt != nil
}

// Profile returns the public part of the user.
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:       u.ID,
		Nickname: u.Nickname,
		Email:    u.Email,
	}
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID       int64
	Nickname string
	Email    string
}
