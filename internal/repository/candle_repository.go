// Package repository stores candles in Postgres.
package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"cryptoview/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const candleSchema = `
CREATE TABLE IF NOT EXISTS candles (
    symbol      TEXT             NOT NULL,
    interval    TEXT             NOT NULL,
    open_time   TIMESTAMPTZ      NOT NULL,
    open        DOUBLE PRECISION NOT NULL,
    high        DOUBLE PRECISION NOT NULL,
    low         DOUBLE PRECISION NOT NULL,
    close       DOUBLE PRECISION NOT NULL,
    volume      DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (symbol, interval, open_time)
);

CREATE INDEX IF NOT EXISTS idx_candles_recent
    ON candles (symbol, interval, open_time DESC);
`

const upsertCandle = `
INSERT INTO candles (symbol, interval, open_time, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (symbol, interval, open_time) DO UPDATE SET
    open = EXCLUDED.open,
    high = EXCLUDED.high,
    low = EXCLUDED.low,
    close = EXCLUDED.close,
    volume = EXCLUDED.volume`

const candleColumns = `symbol, interval, open_time, open, high, low, close, volume`

// PgxPool is the subset of *pgxpool.Pool the repository uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CandleRepository reads and writes the candles table.
type CandleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewCandleRepository(pool PgxPool, tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{pool: pool, tracer: tracer}
}

// RunMigrations creates the candles table if it does not exist.
func (r *CandleRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "candle-repo.run-migrations")
	defer span.End()

	if _, err := r.pool.Exec(ctx, candleSchema); err != nil {
		return fmt.Errorf("migrate candles: %w", err)
	}
	return nil
}

// UpsertCandles writes candles in one batch, replacing existing bars with
// the same symbol, interval and open time.
func (r *CandleRepository) UpsertCandles(ctx context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "candle-repo.upsert-candles")
	defer span.End()
	span.SetAttributes(attribute.Int("candles", len(candles)))

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(upsertCandle, c.Symbol, c.Interval, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range candles {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s %s %s: %w", c.Symbol, c.Interval, c.OpenTime.Format(time.RFC3339), err)
		}
	}
	return nil
}

// GetCandles returns the latest limit candles in chronological order.
func (r *CandleRepository) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	ctx, span := r.tracer.Start(ctx, "candle-repo.get-candles")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("interval", interval))

	rows, err := r.pool.Query(ctx,
		`SELECT `+candleColumns+`
		 FROM candles
		 WHERE symbol = $1 AND interval = $2
		 ORDER BY open_time DESC
		 LIMIT $3`,
		symbol, interval, limit,
	)
	if err != nil {
		return nil, err
	}
	candles, err := scanCandles(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(candles)
	return candles, nil
}

// GetCandlesInRange returns candles with open times in [from, to], oldest
// first.
func (r *CandleRepository) GetCandlesInRange(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Candle, error) {
	ctx, span := r.tracer.Start(ctx, "candle-repo.get-candles-in-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+candleColumns+`
		 FROM candles
		 WHERE symbol = $1 AND interval = $2 AND open_time >= $3 AND open_time <= $4
		 ORDER BY open_time ASC`,
		symbol, interval, from, to,
	)
	if err != nil {
		return nil, err
	}
	return scanCandles(rows)
}

func scanCandles(rows pgx.Rows) ([]*domain.Candle, error) {
	defer rows.Close()

	var candles []*domain.Candle
	for rows.Next() {
		c := &domain.Candle{}
		if err := rows.Scan(&c.Symbol, &c.Interval, &c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}
