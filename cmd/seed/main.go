// Seed creates the bootstrap admin account (and optionally a demo user) so
// a fresh deployment has someone able to reach the admin API. Safe to run
// repeatedly: existing accounts are left untouched.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"commerce/internal/config"
	"commerce/internal/domain/models"
	"commerce/internal/lib/logger/sl"
	"commerce/internal/repository"
	"commerce/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.MustLoad()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Error("ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx := context.Background()

	repo, err := repository.NewRepository(ctx, cfg.DSN)
	if err != nil {
		log.Error("failed to connect to database", sl.Err(err))
		os.Exit(1)
	}
	defer repo.Close()

	if err := ensureUser(ctx, repo, log, models.User{
		Username: envOr("ADMIN_USERNAME", "admin"),
		FullName: "Administrator",
		Role:     models.RoleAdmin,
	}, adminPassword); err != nil {
		os.Exit(1)
	}

	// Demo account is optional; only seeded when a password is provided.
	if demoPassword := os.Getenv("DEMO_PASSWORD"); demoPassword != "" {
		if err := ensureUser(ctx, repo, log, models.User{
			Username: envOr("DEMO_USERNAME", "demo"),
			FullName: "Demo User",
			Role:     models.RoleUser,
		}, demoPassword); err != nil {
			os.Exit(1)
		}
	}
}

func ensureUser(ctx context.Context, repo *repository.Repository, log *slog.Logger, user models.User, password string) error {
	if _, err := repo.User.UserByUsername(ctx, user.Username); err == nil {
		log.Info("user already exists", slog.String("username", user.Username))
		return nil
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check account", sl.Err(err))
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return err
	}
	user.Password = hash

	id, err := repo.User.SaveUser(ctx, user)
	if err != nil {
		log.Error("failed to create user", sl.Err(err))
		return err
	}

	log.Info("user created",
		slog.String("username", user.Username),
		slog.String("role", user.Role),
		slog.Int("user_id", id),
	)

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
