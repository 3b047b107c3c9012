package credstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Set(ctx, "first"))
	require.NoError(t, s.Set(ctx, "second"))

	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	s, err := NewFile(filepath.Join(t.TempDir(), "nested", "token"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "creds.db"), TokenKey)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStore_Pragmas(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "creds.db"), TokenKey)
	require.NoError(t, err)
	defer s.Close()

	var journal string
	require.NoError(t, s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)

	var busy int
	require.NoError(t, s.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy))
	assert.Equal(t, 5000, busy)
}

func TestSQLiteStore_ReopenKeepsToken(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "creds.db")

	first, err := NewSQLite(ctx, path, TokenKey)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "kept"))
	require.NoError(t, first.Close())

	second, err := NewSQLite(ctx, path, TokenKey)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kept", got)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		dsn     string
		want    any
		wantErr bool
	}{
		{name: "default", dsn: "", want: &Memory{}},
		{name: "memory", dsn: "memory", want: &Memory{}},
		{name: "file", dsn: "file:" + filepath.Join(dir, "token"), want: &File{}},
		{name: "sqlite", dsn: "sqlite:" + filepath.Join(dir, "creds.db"), want: &SQLite{}},
		{name: "unknown", dsn: "redis://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.dsn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestPostgresRetryPolicy(t *testing.T) {
	p := &Postgres{delays: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := p.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	permanent := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	err = p.withRetry(context.Background(), func() error {
		calls++
		return permanent
	})
	assert.True(t, errors.Is(err, permanent))
	assert.Equal(t, 1, calls)
}
