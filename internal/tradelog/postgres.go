// =============================
// File: internal/tradelog/postgres.go
// =============================
package tradelog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresSink implements Sink on a pgx connection pool.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ Sink = (*PostgresSink)(nil)

// NewPostgresSink connects to Postgres and ensures the trade_logs table
// exists.
func NewPostgresSink(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresSink, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresSink{pool: pool, logger: logger.Named("tradelog")}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS trade_logs (
			id         BIGSERIAL PRIMARY KEY,
			mint       TEXT             NOT NULL,
			side       TEXT             NOT NULL,
			price      DOUBLE PRECISION NOT NULL,
			amount     DOUBLE PRECISION NOT NULL,
			signature  TEXT,
			ts_ms      BIGINT           NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create trade_logs table: %w", err)
	}
	return nil
}

// Insert appends one entry.
func (s *PostgresSink) Insert(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trade_logs (mint, side, price, amount, signature, ts_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.Mint, e.Side, e.Price, e.Amount, e.Signature, e.TimestampMs)
	if err != nil {
		return fmt.Errorf("insert trade log: %w", err)
	}

	s.logger.Debug("Trade log written",
		zap.String("mint", e.Mint),
		zap.String("side", e.Side),
		zap.Float64("price", e.Price),
		zap.Float64("amount", e.Amount))
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
