package model

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInvalidState      = errors.New("no active otp")
	ErrInvalidCredential = errors.New("invalid otp code")
	ErrExpired           = errors.New("otp expired")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUnauthorized      = errors.New("unauthorized")
)
