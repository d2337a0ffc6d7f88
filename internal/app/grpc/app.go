package grpcapp

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/grigory222/go-messenger-server/internal/grpc/authgrpc"
	"github.com/grigory222/go-messenger-server/internal/grpc/chatgrpc"
	"github.com/grigory222/go-messenger-server/internal/grpc/interceptors"
	"github.com/grigory222/go-messenger-server/internal/grpc/messenger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type App struct {
	log        *slog.Logger
	gRPCServer *grpc.Server
	health     *health.Server
	port       int
}

func New(
	log *slog.Logger,
	port int,
	timeout time.Duration,
	authService authgrpc.AuthService,
	chatService chatgrpc.ChatService,
	jwtSecret string,
) *App {
	gRPCServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.NewLoggingInterceptor(log, timeout),
		interceptors.NewAuthInterceptor(log, jwtSecret),
	))

	authgrpc.Register(gRPCServer, log, authService)
	chatgrpc.Register(gRPCServer, log, chatService)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(gRPCServer, healthServer)
	healthServer.SetServingStatus(messenger.AuthServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(messenger.ChatServiceName, healthpb.HealthCheckResponse_SERVING)

	return &App{
		log:        log,
		gRPCServer: gRPCServer,
		health:     healthServer,
		port:       port,
	}
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "grpcapp.Run"

	l, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("grpc server started", slog.String("op", op), slog.String("addr", l.Addr().String()))

	if err := a.gRPCServer.Serve(l); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Stop() {
	const op = "grpcapp.Stop"

	a.log.With(slog.String("op", op)).Info("stopping gRPC server", slog.Int("port", a.port))

	a.health.Shutdown()
	a.gRPCServer.GracefulStop()
}
