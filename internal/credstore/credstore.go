// Package credstore содержит хранилища сохраняемого токена доступа.
package credstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// TokenKey задаёт единственный ключ, под которым хранится токен доступа.
const TokenKey = "baleno_auth_token"

// Store описывает хранилище одной строки, токена доступа.
// Get возвращает пустую строку, если токен не сохранён.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Close() error
}

// migrate применяет встроенные миграции из каталога dir. Провайдер создаётся
// на каждый вызов, глобальное состояние goose не затрагивается.
func migrate(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string) error {
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("new migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Open выбирает реализацию хранилища по строке конфигурации:
// "memory", "file:<path>", "sqlite:<path>" или DSN PostgreSQL.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "file:"):
		return NewFile(strings.TrimPrefix(dsn, "file:"))
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLite(ctx, strings.TrimPrefix(dsn, "sqlite:"), TokenKey)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgres(ctx, dsn, TokenKey)
	default:
		return nil, fmt.Errorf("unsupported token store %q", dsn)
	}
}

// Memory хранит токен в памяти процесса.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{}
}

// Get возвращает сохранённый токен.
func (m *Memory) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Set сохраняет токен.
func (m *Memory) Set(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

// Clear удаляет токен.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// Close ничего не делает.
func (m *Memory) Close() error { return nil }
