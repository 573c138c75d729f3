package handler

import (
	"time"

	"github.com/dtroode/otptasks-server/internal/model"
)

// RequestOTPRequest is the body of POST /auth/request-otp.
type RequestOTPRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

// RequestOTPResponse is returned after a challenge was issued.
type RequestOTPResponse struct {
	Detail      string       `json:"detail"`
	User        UserResponse `json:"user"`
	UserCreated bool         `json:"user_created"`
	OTP         string       `json:"otp,omitempty"`
	ExpiresAt   string       `json:"expires_at"`
}

// LoginOTPRequest is the body of POST /auth/login-otp.
type LoginOTPRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
	Code  string `json:"code" binding:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse is the public profile of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// CreateTaskRequest is the body of POST /tasks/.
type CreateTaskRequest struct {
	Title                   string     `json:"title" binding:"required,max=255"`
	EstimatedCompletionTime *time.Time `json:"estimated_completion_time"`
}

// TaskResponse is a task together with its owner.
type TaskResponse struct {
	ID                      int64        `json:"id"`
	Title                   string       `json:"title"`
	Completed               bool         `json:"completed"`
	UserID                  int64        `json:"user_id"`
	EstimatedCompletionTime *time.Time   `json:"estimated_completion_time"`
	User                    UserResponse `json:"user"`
}

func newUserResponse(p model.UserProfile) UserResponse {
	return UserResponse{
		ID:       p.ID,
		Nickname: p.Nickname,
		Email:    p.Email,
	}
}

func newTaskResponse(t model.TaskWithOwner) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		UserID:    t.UserID,
		User:      newUserResponse(t.Owner),
	}
	if t.EstimatedCompletionTime != nil {
		ect := t.EstimatedCompletionTime.UTC()
		resp.EstimatedCompletionTime = &ect
	}
	return resp
}
