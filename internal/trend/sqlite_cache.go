package trend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"trading-persona-analyzer/internal/interfaces"
)

const cacheDDL = `
CREATE TABLE IF NOT EXISTS candle_cache (
	key       TEXT PRIMARY KEY,
	data      BLOB NOT NULL,
	stored_at INTEGER NOT NULL
)`

// SQLiteCache keeps cached candles in a single database file.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
}

var _ interfaces.Cache = (*SQLiteCache)(nil)

func NewSQLiteCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(cacheDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache schema: %w", err)
	}
	return &SQLiteCache{db: db, ttl: ttl}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data     []byte
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx, `SELECT data, stored_at FROM candle_cache WHERE key = ?`, key).Scan(&data, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && time.Since(time.Unix(storedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	return data, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, data []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO candle_cache (key, data, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at`,
		key, data, time.Now().Unix(),
	)
	return err
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
