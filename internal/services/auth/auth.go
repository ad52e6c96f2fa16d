// Package auth coordinates login, signup, refresh and logout on top of the
// token service and the persisted refresh-token registry. There is no
// server-side session state: a session exists exactly as long as its
// refresh token is present in the store and alive.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"
	"commerce/internal/lib/logger/sl"
	"commerce/internal/metrics"
	"commerce/internal/services/tokens"
	"commerce/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

type UserProvider interface {
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByID(ctx context.Context, id int) (models.User, error)
}

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) (int, error)
}

type TokenIssuer interface {
	IssueAccessToken(p models.Principal) (models.IssuedToken, error)
	IssueRefreshToken(p models.Principal) (models.IssuedToken, error)
	CheckLiveness(tokenString string, now time.Time) tokens.Liveness
}

type TokenStore interface {
	Insert(ctx context.Context, token models.RefreshToken) error
	Delete(ctx context.Context, token string) error
	Redeem(ctx context.Context, token string, now time.Time) (models.RefreshToken, bool, error)
}

type Auth struct {
	log         *slog.Logger
	usrProvider UserProvider
	usrSaver    UserSaver
	issuer      TokenIssuer
	store       TokenStore
	now         func() time.Time
}

func New(log *slog.Logger, usrProvider UserProvider, usrSaver UserSaver, issuer TokenIssuer, store TokenStore) *Auth {
	return &Auth{
		log:         log,
		usrProvider: usrProvider,
		usrSaver:    usrSaver,
		issuer:      issuer,
		store:       store,
		now:         time.Now,
	}
}

// WithClock overrides the time source for tests.
func (a *Auth) WithClock(now func() time.Time) *Auth {
	a.now = now
	return a
}

// Login authenticates the credentials and opens a new session. A missing
// user and a wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, username, password string) (models.Session, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	user, err := a.usrProvider.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()

			return models.Session{}, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		log.Info("invalid credentials")
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()

		return models.Session{}, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}

	session, err := a.openSession(ctx, user)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in")
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return session, nil
}

// Register creates the account and then behaves exactly like Login's
// token-issuance tail.
func (a *Auth) Register(ctx context.Context, username, password string) (models.Session, error) {
	const op = "auth.Register"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	if _, err := a.usrProvider.UserByUsername(ctx, username); err == nil {
		log.Warn("username already taken")

		return models.Session{}, fmt.Errorf("%s: %w", op,
			apperr.ErrUsernameAlreadyExists.With(map[string]string{"username": username}))
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check username", sl.Err(err))

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Username: username,
		Password: passHash,
		Role:     models.RoleUser,
	}

	id, err := a.usrSaver.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return models.Session{}, fmt.Errorf("%s: %w", op,
				apperr.ErrUsernameAlreadyExists.With(map[string]string{"username": username}))
		}
		log.Error("failed to save user", sl.Err(err))

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	user.ID = id

	session, err := a.openSession(ctx, user)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int("user_id", id))

	return session, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token itself is not rotated: the same string stays valid in the
// store until its own expiry. A dead token (expired or failing liveness) is
// purged and the cookie flagged for clearing — yet a fresh access token is
// still issued from the record loaded before the purge. That last step
// mirrors the long-deployed behavior and is pinned by tests; do not "fix"
// it here without a product decision.
func (a *Auth) Refresh(ctx context.Context, cookieToken string) (models.Session, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	if cookieToken == "" {
		metrics.RefreshesTotal.WithLabelValues("no_cookie").Inc()

		return models.Session{}, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}

	now := a.now()

	record, expired, err := a.store.Redeem(ctx, cookieToken, now)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Warn("refresh token not in store")
			metrics.RefreshesTotal.WithLabelValues("not_found").Inc()

			return models.Session{}, fmt.Errorf("%s: %w", op, apperr.ErrTokenNotFound)
		}
		log.Error("failed to redeem refresh token", sl.Err(err))

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	liveness := a.issuer.CheckLiveness(cookieToken, now)
	clear := expired || liveness != tokens.LivenessValid

	if clear && !expired {
		// Signature/structure failure on a row the store still holds:
		// purge it the same way an expired one is purged.
		if err := a.store.Delete(ctx, cookieToken); err != nil {
			log.Error("failed to delete dead refresh token", sl.Err(err))

			return models.Session{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if clear {
		log.Info("refresh token no longer live",
			slog.Int("user_id", record.UserID),
			slog.String("liveness", liveness.String()),
		)
		metrics.RefreshesTotal.WithLabelValues("expired").Inc()
	} else {
		metrics.RefreshesTotal.WithLabelValues("success").Inc()
	}

	user, err := a.usrProvider.UserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Session{}, fmt.Errorf("%s: %w", op,
				apperr.ErrUserNotFound.With(map[string]string{"id": fmt.Sprint(record.UserID)}))
		}
		log.Error("failed to load token owner", sl.Err(err))

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	access, err := a.issuer.IssueAccessToken(user)
	if err != nil {
		log.Error("failed to issue access token", sl.Err(err))

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Session{
		AccessToken:  access.Token,
		RefreshToken: cookieToken,
		User:         user,
		ClearCookie:  clear,
	}, nil
}

// Logout revokes the presented refresh token. A token already absent from
// the store is not an error; the transport clears the cookie either way.
func (a *Auth) Logout(ctx context.Context, cookieToken string) error {
	const op = "auth.Logout"

	if cookieToken == "" {
		return nil
	}

	if err := a.store.Delete(ctx, cookieToken); err != nil {
		a.log.Error("failed to delete refresh token", slog.String("op", op), sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *Auth) openSession(ctx context.Context, user models.User) (models.Session, error) {
	access, err := a.issuer.IssueAccessToken(user)
	if err != nil {
		return models.Session{}, err
	}

	refresh, err := a.issuer.IssueRefreshToken(user)
	if err != nil {
		return models.Session{}, err
	}

	err = a.store.Insert(ctx, models.RefreshToken{
		Token:     refresh.Token,
		UserID:    user.ID,
		ExpiresAt: refresh.ExpiresAt,
		CreatedAt: a.now(),
	})
	if err != nil {
		return models.Session{}, err
	}

	return models.Session{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		User:         user,
	}, nil
}
