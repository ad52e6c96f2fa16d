package response

import (
	"errors"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"
)

// ErrorResponse is the error envelope every failed request renders: a
// stable machine-readable code plus a human message.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromError maps any error to its envelope and HTTP status. Errors that
// carry no taxonomy entry render as an opaque internal error.
func FromError(err error) (int, ErrorResponse) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.ErrInternal
	}

	return appErr.Status, ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.RenderMessage(),
	}
}

// AuthResponse is the body of login, signup and refresh. The refresh token
// travels only in the cookie, never in the body.
type AuthResponse struct {
	AccessToken string      `json:"accessToken"`
	User        models.User `json:"user"`
}

func NewAuthResponse(session models.Session) AuthResponse {
	return AuthResponse{
		AccessToken: session.AccessToken,
		User:        session.User,
	}
}
