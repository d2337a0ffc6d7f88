package app

import (
	"context"
	"log/slog"
	"time"

	grpcapp "github.com/grigory222/go-messenger-server/internal/app/grpc"
	httpapp "github.com/grigory222/go-messenger-server/internal/app/http"
	"github.com/grigory222/go-messenger-server/internal/config"
	"github.com/grigory222/go-messenger-server/internal/httpapi"
	"github.com/grigory222/go-messenger-server/internal/services/auth"
	"github.com/grigory222/go-messenger-server/internal/services/chat"
	"github.com/grigory222/go-messenger-server/internal/services/notify"
	"github.com/grigory222/go-messenger-server/internal/storage"
	"github.com/grigory222/go-messenger-server/internal/storage/memory"
	"github.com/grigory222/go-messenger-server/internal/storage/postgres"
)

const (
	storageInitTimeout = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
)

type App struct {
	log     *slog.Logger
	GRPCSrv *grpcapp.App
	HTTPSrv *httpapp.App
	Storage storage.Storage
}

func New(log *slog.Logger, cfg *config.Config) *App {
	st := mustStorage(log, cfg)

	authService := auth.New(
		log,
		st,
		notify.New(log),
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.JwtSecret,
		cfg.Messenger.InviteCodeAttempts,
	)
	chatService := chat.New(log, st, cfg.Messenger.DefaultPageSize, cfg.Messenger.MaxPageSize)

	grpcApp := grpcapp.New(log, cfg.GRPC.Port, cfg.GRPC.Timeout, authService, chatService, cfg.JwtSecret)

	router := httpapi.NewRouter(httpapi.Deps{
		Log:            log,
		Auth:           authService,
		Chat:           chatService,
		JWTSecret:      cfg.JwtSecret,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
	})
	httpApp := httpapp.New(log, cfg.HTTP, router)

	return &App{
		log:     log,
		GRPCSrv: grpcApp,
		HTTPSrv: httpApp,
		Storage: st,
	}
}

func mustStorage(log *slog.Logger, cfg *config.Config) storage.Storage {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageInitTimeout)
	defer cancel()

	pgStorage, err := postgres.New(ctx, cfg.Postgres, log)
	if err != nil {
		panic("failed to init storage: " + err.Error())
	}

	if cfg.Postgres.AutoMigrate {
		if err := pgStorage.Migrate(ctx); err != nil {
			pgStorage.Close()
			panic("failed to migrate storage: " + err.Error())
		}
	}

	return pgStorage
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.HTTPSrv != nil {
		if err := a.HTTPSrv.Stop(ctx); err != nil && a.log != nil {
			a.log.Error("failed to stop http server", slog.Any("err", err))
		}
	}
	a.GRPCSrv.Stop()
	a.Storage.Close()
}
