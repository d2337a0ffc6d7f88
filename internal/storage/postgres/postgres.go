package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grigory222/go-messenger-server/internal/config"
	"github.com/grigory222/go-messenger-server/internal/domain/models"
	"github.com/grigory222/go-messenger-server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier - общий интерфейс *pgxpool.Pool и pgx.Tx, чтобы одни и те же методы
// работали и поверх пула, и внутри транзакции.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Storage struct {
	pool *pgxpool.Pool
	q    querier
	log  *slog.Logger
}

var _ storage.Storage = (*Storage)(nil)

func New(ctx context.Context, cfg config.Postgres, log *slog.Logger) (*Storage, error) {
	const op = "storage.postgres.New"

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.ApplicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to postgres: %w", op, err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping postgres: %w", op, err)
	}

	log.Info("connected to PostgreSQL", slog.String("db_name", cfg.DBName))

	return NewWithPool(pool, log), nil
}

// NewWithPool оборачивает уже открытый пул.
func NewWithPool(pool *pgxpool.Pool, log *slog.Logger) *Storage {
	return &Storage{pool: pool, q: pool, log: log}
}

func (s *Storage) Close() {
	// у хранилища внутри транзакции pool == nil
	if s.pool != nil {
		s.pool.Close()
	}
}

// InTx открывает транзакцию (или savepoint, если Storage уже внутри транзакции)
// и передает в fn хранилище, привязанное к ней.
func (s *Storage) InTx(ctx context.Context, fn func(tx storage.Storage) error) error {
	const op = "storage.postgres.InTx"

	tx, err := s.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrTransactionFailed, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&Storage{q: tx, log: s.log}); err != nil {
		if models.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("%s: %w", op, retryable(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrTransactionFailed, err)
	}

	return nil
}

// atomic выполняет несколько запросов одной единицей работы.
func (s *Storage) atomic(ctx context.Context, fn func(q querier) error) error {
	return pgx.BeginFunc(ctx, s.q, func(tx pgx.Tx) error {
		return fn(tx)
	})
}
