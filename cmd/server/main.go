package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/grigory222/go-messenger-server/internal/app"
	"github.com/grigory222/go-messenger-server/internal/config"
	"github.com/grigory222/go-messenger-server/internal/lib/logger"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)

	log.Info("starting application",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("grpc_port", cfg.GRPC.Port),
		slog.String("http_addr", cfg.HTTP.Address),
	)

	application := app.New(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go application.GRPCSrv.MustRun()
	go application.HTTPSrv.MustRun()

	<-ctx.Done()

	log.Info("stopping application")
	application.Stop()
	log.Info("application stopped")
}
