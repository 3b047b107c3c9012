package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Параметры соединения в форме драйвера modernc.org/sqlite: WAL и ожидание
// блокировки вместо немедленного SQLITE_BUSY при одновременной записи.
const sqliteParams = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// SQLite хранит токен в локальной базе SQLite на устройстве.
type SQLite struct {
	db  *sql.DB
	key string
}

// NewSQLite открывает базу по указанному пути и применяет миграции.
func NewSQLite(ctx context.Context, path, key string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := migrate(ctx, goose.DialectSQLite3, db, "migrations/sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, key: key}, nil
}

// Get возвращает сохранённый токен.
func (s *SQLite) Get(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select credential: %w", err)
	}
	return value, nil
}

// Set сохраняет токен, заменяя предыдущий.
func (s *SQLite) Set(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.key, token,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Clear удаляет токен.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой.
func (s *SQLite) Close() error {
	return s.db.Close()
}
