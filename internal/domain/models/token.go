package models

import "time"

// RefreshToken is a row of the refresh-token registry. The signed token
// string doubles as the primary key: presenting it is both lookup and proof
// of possession.
type RefreshToken struct {
	Token     string
	UserID    int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the stored expiry lies strictly before now.
func (t RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// IssuedToken is a freshly signed token together with the expiry baked into
// its claims.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
