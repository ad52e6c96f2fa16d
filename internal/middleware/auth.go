package middleware

import (
	"context"
	"fmt"
	"strings"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Authenticator validates an access token and extracts who it belongs to.
type Authenticator interface {
	Authenticate(tokenString string) (models.TokenIdentity, error)
}

// UserLoader resolves a token identity to the full stored user.
type UserLoader interface {
	UserByID(ctx context.Context, id int) (models.User, error)
}

// Authenticate requires a Bearer access token and stashes the verified
// identity in the echo context for the handlers downstream.
func Authenticate(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			const prefix = "Bearer "

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, prefix) {
				return apperr.ErrUnauthorized
			}

			identity, err := auth.Authenticate(strings.TrimPrefix(header, prefix))
			if err != nil {
				return err
			}

			c.Set(identityKey, identity)

			return next(c)
		}
	}
}

// Identity returns the authenticated token identity, if Authenticate ran on
// this route.
func Identity(c echo.Context) (models.TokenIdentity, bool) {
	identity, ok := c.Get(identityKey).(models.TokenIdentity)
	return identity, ok
}

// AdminOnly gates a route on the stored role of the authenticated user. The
// role is read from the database, not from the token, so a demotion takes
// effect without waiting for the access token to expire.
func AdminOnly(users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := Identity(c)
			if !ok {
				return apperr.ErrUnauthorized
			}

			user, err := users.UserByID(c.Request().Context(), identity.UserID)
			if err != nil {
				return fmt.Errorf("middleware.AdminOnly: %w", err)
			}
			if !user.IsAdmin() {
				return apperr.ErrAccessDenied
			}

			return next(c)
		}
	}
}
