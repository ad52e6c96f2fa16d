package repository

import (
	"errors"
	"fmt"

	"context"

	"commerce/internal/domain/models"
	"commerce/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

type UserRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepo) SaveUser(ctx context.Context, user models.User) (int, error) {
	const op = "repository.user_repository.SaveUser"

	query, args, err := r.sb.Insert("users").
		Columns(
			"username",
			"full_name",
			"email",
			"phone_number",
			"avatar_url",
			"role",
			"password",
		).
		Values(
			user.Username,
			user.FullName,
			user.Email,
			user.PhoneNumber,
			user.AvatarURL,
			user.Role,
			user.Password,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var id int
	err = r.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *UserRepo) UserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "repository.user_repository.UserByUsername"

	query, args, err := r.sb.
		Select("id", "username", "full_name", "email", "phone_number", "avatar_url", "role", "password").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.scanUser(ctx, op, query, args)
}

func (r *UserRepo) UserByID(ctx context.Context, id int) (models.User, error) {
	const op = "repository.user_repository.UserByID"

	query, args, err := r.sb.
		Select("id", "username", "full_name", "email", "phone_number", "avatar_url", "role", "password").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.scanUser(ctx, op, query, args)
}

func (r *UserRepo) scanUser(ctx context.Context, op, query string, args []interface{}) (models.User, error) {
	var user models.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.Email,
		&user.PhoneNumber,
		&user.AvatarURL,
		&user.Role,
		&user.Password,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
