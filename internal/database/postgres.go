// Package database concentra o acesso ao PostgreSQL: pool de conexões, transações e migrações.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Psql é o builder de SQL com placeholders $n, usado nas consultas com filtros dinâmicos
var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DBTX é satisfeito tanto por *pgxpool.Pool quanto por pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect cria o pool de conexões e aguarda o banco ficar disponível
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			slog.InfoContext(ctx, "✅ Connected to marketplace database with connection pool")
			return pool, nil
		}
		slog.InfoContext(ctx, "⏳ Waiting for database...", "attempt", i+1, "max_attempts", 30)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}

// IsUniqueViolation informa se o erro é uma violação de constraint UNIQUE
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsNoRows informa se a consulta não retornou linhas
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
