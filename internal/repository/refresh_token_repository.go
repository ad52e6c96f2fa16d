package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce/internal/domain/models"
	"commerce/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RefreshTokenRepo persists the refresh-token registry in the
// refresh_token table. The primary key is the raw signed token string, so
// the identifier and the bearer credential are one value.
type RefreshTokenRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewRefreshTokenRepository(db *pgxpool.Pool) *RefreshTokenRepo {
	return &RefreshTokenRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *RefreshTokenRepo) Insert(ctx context.Context, token models.RefreshToken) error {
	const op = "repository.refresh_token_repository.Insert"

	query, args, err := r.sb.Insert("refresh_token").
		Columns("token", "user_id", "expires_at", "created_at").
		Values(token.Token, token.UserID, token.ExpiresAt, token.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrTokenExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RefreshTokenRepo) FindByToken(ctx context.Context, token string) (models.RefreshToken, error) {
	const op = "repository.refresh_token_repository.FindByToken"

	query, args, err := r.sb.
		Select("token", "user_id", "expires_at", "created_at").
		From("refresh_token").
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var record models.RefreshToken
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&record.Token,
		&record.UserID,
		&record.ExpiresAt,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return models.RefreshToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return record, nil
}

// Delete removes the record if present. Logout on an already-removed token
// must not fail, so a missing row is not an error.
func (r *RefreshTokenRepo) Delete(ctx context.Context, token string) error {
	const op = "repository.refresh_token_repository.Delete"

	query, args, err := r.sb.Delete("refresh_token").
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Redeem serializes concurrent refresh calls on the same token string: the
// row is locked for the duration of the transaction and deleted in the same
// transaction when its expiry has passed. Returns the record and whether it
// was expired (and therefore removed).
func (r *RefreshTokenRepo) Redeem(ctx context.Context, token string, now time.Time) (models.RefreshToken, bool, error) {
	const op = "repository.refresh_token_repository.Redeem"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.RefreshToken{}, false, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.sb.
		Select("token", "user_id", "expires_at", "created_at").
		From("refresh_token").
		Where(sq.Eq{"token": token}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return models.RefreshToken{}, false, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var record models.RefreshToken
	err = tx.QueryRow(ctx, query, args...).Scan(
		&record.Token,
		&record.UserID,
		&record.ExpiresAt,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, false, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return models.RefreshToken{}, false, fmt.Errorf("%s: %w", op, err)
	}

	expired := record.Expired(now)
	if expired {
		del, delArgs, err := r.sb.Delete("refresh_token").
			Where(sq.Eq{"token": token}).
			ToSql()
		if err != nil {
			return models.RefreshToken{}, false, fmt.Errorf("%s: can't build sql: %w", op, err)
		}

		if _, err := tx.Exec(ctx, del, delArgs...); err != nil {
			return models.RefreshToken{}, false, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.RefreshToken{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return record, expired, nil
}

func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "repository.refresh_token_repository.DeleteExpired"

	query, args, err := r.sb.Delete("refresh_token").
		Where(sq.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
