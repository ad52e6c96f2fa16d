package app

import (
	"context"
	"log/slog"

	httpapp "commerce/internal/app/http"
	"commerce/internal/config"
	libjwt "commerce/internal/lib/jwt"
	mw "commerce/internal/middleware"
	"commerce/internal/repository"
	"commerce/internal/services/auth"
	"commerce/internal/services/catalog"
	"commerce/internal/services/tokens"
	redisapp "commerce/internal/storage/redis"
	httprouters "commerce/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server

	log          *slog.Logger
	repo         *repository.Repository
	redis        *redisapp.Client
	reaper       *tokens.Reaper
	reaperCancel context.CancelFunc
}

func New(log *slog.Logger, cfg *config.Config) *App {
	repo, err := repository.NewRepository(context.Background(), cfg.DSN)
	if err != nil {
		panic(err)
	}

	codec, err := libjwt.NewCodec(cfg.JWT.Secret)
	if err != nil {
		panic(err)
	}

	tokenService := tokens.New(codec, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	authService := auth.New(log, repo.User, repo.User, tokenService, repo.Token)

	rdb := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	cache := catalog.NewListCache(rdb.Client, cfg.CacheTTL)
	catalogService := catalog.New(log, repo.Product, cache)

	routers := httprouters.NewRouter(log, authService, catalogService, repo.User, cfg.JWT.RefreshTTL())

	server := httpapp.New(
		log,
		cfg.HTTP.Host, cfg.HTTP.Port,
		cfg.AllowedOrigins,
		routers,
		mw.Authenticate(tokenService),
		mw.AdminOnly(repo.User),
	)

	return &App{
		HTTPServer: server,
		log:        log,
		repo:       repo,
		redis:      rdb,
		reaper:     tokens.NewReaper(log, repo.Token, cfg.ReaperInterval),
	}
}

// Run builds the routes, starts the expiry reaper and serves until Stop.
func (a *App) Run() {
	reaperCtx, cancel := context.WithCancel(context.Background())
	a.reaperCancel = cancel

	go a.reaper.Run(reaperCtx)

	a.HTTPServer.BuildRouters()
	a.HTTPServer.MustRun()
}

func (a *App) Stop() {
	if a.reaperCancel != nil {
		a.reaperCancel()
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error("http server shutdown failed", slog.String("error", err.Error()))
	}

	a.repo.Close()

	if err := a.redis.Close(); err != nil {
		a.log.Error("redis close failed", slog.String("error", err.Error()))
	}
}
