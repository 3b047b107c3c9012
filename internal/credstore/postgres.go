package credstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Postgres хранит токен в общей базе PostgreSQL (киоски и стойки обслуживания,
// разделяющие одно хранилище). Каждое устройство пишет под своим ключом.
type Postgres struct {
	pool   *pgxpool.Pool
	key    string
	delays []time.Duration
}

// NewPostgres создаёт пул соединений и инициализирует схему через миграции.
func NewPostgres(ctx context.Context, dsn, key string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{
		pool:   pool,
		key:    key,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	if err := p.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

func (p *Postgres) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()

	return migrate(ctx, goose.DialectPostgres, db, "migrations/postgres")
}

func (p *Postgres) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(p.delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(p.delays) {
			break
		}

		timer := time.NewTimer(p.delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Get возвращает токен устройства.
func (p *Postgres) Get(ctx context.Context) (string, error) {
	var value string
	err := p.withRetry(ctx, func() error {
		return p.pool.QueryRow(ctx,
			`SELECT value FROM credentials WHERE key = $1`,
			p.key,
		).Scan(&value)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("select credential: %w", err)
	}
	return value, nil
}

// Set сохраняет токен устройства.
func (p *Postgres) Set(ctx context.Context, token string) error {
	err := p.withRetry(ctx, func() error {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO credentials (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			p.key, token,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Clear удаляет токен устройства.
func (p *Postgres) Clear(ctx context.Context) error {
	err := p.withRetry(ctx, func() error {
		_, err := p.pool.Exec(ctx, `DELETE FROM credentials WHERE key = $1`, p.key)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Close закрывает пул соединений с БД.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
