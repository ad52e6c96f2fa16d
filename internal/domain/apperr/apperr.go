// Package apperr defines the checked failure taxonomy returned by services
// and rendered by the transport layer. Anything that is not an *Error is an
// internal failure and must never leak detail to the caller.
package apperr

import (
	"net/http"
	"strings"
)

type Error struct {
	Code    string
	Message string
	Status  int
	params  map[string]string
}

var (
	ErrInternal = &Error{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}
	ErrInvalidCredentials = &Error{
		Code:    "INVALID_CREDENTIALS",
		Message: "Invalid credentials",
		Status:  http.StatusUnauthorized,
	}
	ErrInvalidRefreshToken = &Error{
		Code:    "INVALID_REFRESH_TOKEN",
		Message: "Invalid refresh token",
		Status:  http.StatusUnauthorized,
	}
	ErrUnauthorized = &Error{
		Code:    "UNAUTHORIZED",
		Message: "Unauthorized",
		Status:  http.StatusUnauthorized,
	}
	ErrTokenNotFound = &Error{
		Code:    "TOKEN_NOT_FOUND",
		Message: "Token {id} not found",
		Status:  http.StatusNotFound,
	}
	ErrTokenExpired = &Error{
		Code:    "TOKEN_EXPIRED",
		Message: "Token expired",
		Status:  http.StatusUnauthorized,
	}
	ErrAccessDenied = &Error{
		Code:    "ACCESS_DENIED",
		Message: "Access denied",
		Status:  http.StatusForbidden,
	}
	ErrUsernameAlreadyExists = &Error{
		Code:    "USERNAME_ALREADY_EXISTS",
		Message: "Username {username} already exists",
		Status:  http.StatusBadRequest,
	}
	ErrUserNotFound = &Error{
		Code:    "USER_NOT_FOUND",
		Message: "User {id} not found",
		Status:  http.StatusNotFound,
	}
	ErrProductNotFound = &Error{
		Code:    "PRODUCT_NOT_FOUND",
		Message: "Product {id} not found",
		Status:  http.StatusNotFound,
	}
)

func (e *Error) Error() string {
	return e.Code + ": " + e.RenderMessage()
}

// With returns a copy carrying message parameters, so the shared sentinel
// values stay immutable.
func (e *Error) With(params map[string]string) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		params:  params,
	}
}

// RenderMessage expands {name} placeholders with the attached parameters.
func (e *Error) RenderMessage() string {
	msg := e.Message
	for k, v := range e.params {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

// Is matches by code so errors.Is works across With copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
