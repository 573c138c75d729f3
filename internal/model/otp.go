package model

import (
	"context"
	"time"
)

// OTPLength is the number of digits in a one-time code.
const OTPLength = 6

// Challenge is the outcome of a one-time code request.
type Challenge struct {
	User        UserProfile
	UserCreated bool
	Code        string
	ExpiresAt   time.Time
}

// OTPSender delivers a freshly generated code to the user.
type OTPSender interface {
	Send(ctx context.Context, user UserProfile, code string, expiresAt time.Time) error
}
