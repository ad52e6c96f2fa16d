package repository

import (
	"context"
	"time"

	"commerce/internal/domain/models"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (int, error)
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByID(ctx context.Context, id int) (models.User, error)
}

// RefreshTokenRepository is the persisted registry of issued refresh
// tokens, keyed by the raw token string.
type RefreshTokenRepository interface {
	// Insert fails with storage.ErrTokenExists on a duplicate token
	// string; a collision means a codec or clock bug upstream, never a
	// state to merge silently.
	Insert(ctx context.Context, token models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (models.RefreshToken, error)
	// Delete is a no-op when the token is absent.
	Delete(ctx context.Context, token string) error
	// Redeem loads the record and, when its expiry has passed, deletes it —
	// all inside one transaction holding a row lock, so concurrent refresh
	// calls bearing the same token string serialize here.
	Redeem(ctx context.Context, token string, now time.Time) (models.RefreshToken, bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ProductRepository interface {
	SaveProduct(ctx context.Context, product models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ProductByID(ctx context.Context, id int) (models.Product, error)
	ListProducts(ctx context.Context, query string, tags []string) ([]models.Product, error)
}
