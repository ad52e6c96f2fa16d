// Package tokens mints and validates the signed credentials that replace
// server-side sessions: short-lived access tokens and the longer-lived
// refresh tokens persisted by the auth service.
package tokens

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"
	libjwt "commerce/internal/lib/jwt"

	"github.com/golang-jwt/jwt/v5"
)

// Liveness is the validator's verdict on a token at a given instant.
type Liveness int

const (
	LivenessInvalid Liveness = iota
	LivenessExpired
	LivenessValid
)

func (l Liveness) String() string {
	switch l {
	case LivenessValid:
		return "valid"
	case LivenessExpired:
		return "expired"
	default:
		return "invalid"
	}
}

type Service struct {
	codec      *libjwt.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func New(codec *libjwt.Codec, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Tests use it to move past expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) IssueAccessToken(p models.Principal) (models.IssuedToken, error) {
	return s.issue(p, s.accessTTL)
}

func (s *Service) IssueRefreshToken(p models.Principal) (models.IssuedToken, error) {
	return s.issue(p, s.refreshTTL)
}

func (s *Service) issue(p models.Principal, ttl time.Duration) (models.IssuedToken, error) {
	const op = "tokens.issue"

	now := s.now()
	expiresAt := now.Add(ttl)

	signed, err := s.codec.Sign(jwt.MapClaims{
		"userId": strconv.Itoa(p.PrincipalID()),
		"sub":    p.PrincipalUsername(),
		"iat":    now.Unix(),
		"exp":    expiresAt.Unix(),
	})
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// CheckLiveness verifies signature and structure via the codec, then
// compares the normalized exp claim against now. A token is valid strictly
// before its expiry instant and expired from that instant on.
func (s *Service) CheckLiveness(tokenString string, now time.Time) Liveness {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return LivenessInvalid
	}

	expiresAt, err := expiryFromClaims(claims)
	if err != nil {
		return LivenessInvalid
	}

	if now.Before(expiresAt) {
		return LivenessValid
	}
	return LivenessExpired
}

// Authenticate resolves a bearer token into the identity it proves,
// returning the checked taxonomy errors the transport renders directly.
func (s *Service) Authenticate(tokenString string) (models.TokenIdentity, error) {
	const op = "tokens.Authenticate"

	switch s.CheckLiveness(tokenString, s.now()) {
	case LivenessExpired:
		return models.TokenIdentity{}, fmt.Errorf("%s: %w", op, apperr.ErrTokenExpired)
	case LivenessInvalid:
		return models.TokenIdentity{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return models.TokenIdentity{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	rawID, ok := claims["userId"].(string)
	if !ok {
		return models.TokenIdentity{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	userID, err := strconv.Atoi(rawID)
	if err != nil {
		return models.TokenIdentity{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	subject, _ := claims["sub"].(string)

	return models.TokenIdentity{UserID: userID, Username: subject}, nil
}

// expiryFromClaims normalizes the exp claim, which external representations
// deliver as a JSON number, an integral value or a numeric string. Anything
// else is a hard error so an unrecognized encoding can never pass as live.
func expiryFromClaims(claims jwt.MapClaims) (time.Time, error) {
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case int64:
		return time.Unix(exp, 0), nil
	case int:
		return time.Unix(int64(exp), 0), nil
	case json.Number:
		n, err := exp.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("non-integral exp claim %q", exp)
		}
		return time.Unix(n, 0), nil
	case string:
		n, err := strconv.ParseInt(exp, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("non-numeric exp claim %q", exp)
		}
		return time.Unix(n, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected exp claim type %T", exp)
	}
}
