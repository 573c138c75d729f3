package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/otptasks-server/internal/model"
)

const (
	detailInternal       = "Internal server error"
	detailUnauthorized   = "Invalid authentication credentials"
	detailNoActiveOTP    = "No active OTP for this user. Request a new one."
	detailInvalidOTP     = "Invalid OTP code."
	detailExpiredOTP     = "OTP has expired. Request a new one."
	detailNotFound       = "Not found"
	detailUserNotFound   = "User not found for this email."
	detailInvalidRequest = "Invalid request"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// errorStatus maps domain errors to an HTTP status and a client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, detailNotFound
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusBadRequest, detailNoActiveOTP
	case errors.Is(err, model.ErrInvalidCredential):
		return http.StatusBadRequest, detailInvalidOTP
	case errors.Is(err, model.ErrExpired):
		return http.StatusBadRequest, detailExpiredOTP
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrInvalidToken):
		return http.StatusUnauthorized, detailUnauthorized
	default:
		return http.StatusInternalServerError, detailInternal
	}
}

// AbortWithError writes the response matching err and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	status, detail := errorStatus(err)
	AbortWithDetail(c, status, detail)
}

// AbortWithDetail writes {"detail": detail} with status and stops the chain.
func AbortWithDetail(c *gin.Context, status int, detail string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}

func abortWithValidationError(c *gin.Context, err error) {
	detail := detailInvalidRequest
	if err != nil {
		detail = detailInvalidRequest + ": " + err.Error()
	}
	AbortWithDetail(c, http.StatusUnprocessableEntity, detail)
}
