// Package jwt wraps golang-jwt into the signing codec used for access and
// refresh tokens. The codec owns signature integrity only; expiry is
// checked by the token service, which is why parsing runs without claims
// validation.
package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is 256 bits. Anything shorter makes HS256 brute-forceable.
const MinSecretLen = 32

var (
	ErrShortSecret    = errors.New("signing secret shorter than 256 bits")
	ErrTokenMalformed = errors.New("token malformed")
	ErrBadSignature   = errors.New("token signature mismatch")
)

type Codec struct {
	secret []byte
	parser *jwt.Parser
}

func NewCodec(secret string) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("lib.jwt.NewCodec: %w", ErrShortSecret)
	}

	return &Codec{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (c *Codec) Sign(claims jwt.MapClaims) (string, error) {
	const op = "lib.jwt.Sign"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify checks structure and signature and returns the raw claims. Callers
// always get one of the package sentinels for bad input, never a panic or a
// library-internal error.
func (c *Codec) Verify(tokenString string) (jwt.MapClaims, error) {
	const op = "lib.jwt.Verify"

	token, err := c.parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%s: %w", op, ErrBadSignature)
		default:
			return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenMalformed)
	}

	return claims, nil
}
