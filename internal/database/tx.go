package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// BeginTx inicia uma nova transação (READ COMMITTED, padrão do PostgreSQL)
func BeginTx(ctx context.Context, pool *pgxpool.Pool) (Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx}, nil
}

// Conn retorna a transação pgx subjacente para executar comandos
func Conn(tx Tx) pgx.Tx {
	return tx.(*PostgresTx).tx
}

// Savepoint executa fn dentro de um savepoint. Em caso de erro apenas o savepoint
// é desfeito e a transação externa continua utilizável.
func Savepoint(ctx context.Context, tx Tx, fn func(pgx.Tx) error) error {
	sp, err := Conn(tx).Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

// WithTx executa fn em uma transação, fazendo commit em caso de sucesso e rollback em caso de erro
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := BeginTx(ctx, pool)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(Conn(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
