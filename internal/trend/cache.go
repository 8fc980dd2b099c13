package trend

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"trading-persona-analyzer/internal/interfaces"
	"trading-persona-analyzer/internal/store"
)

// NewCache opens the configured candle cache. Backend "none" returns nil.
func NewCache(cfg store.CacheConfig) (interfaces.Cache, error) {
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	var (
		c   interfaces.Cache
		err error
	)
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "file":
		c, err = NewFileCache(cfg.Dir, ttl)
	case "sqlite":
		c, err = NewSQLiteCache(cfg.Path, ttl)
	case "redis":
		c, err = NewRedisCache(cfg.RedisAddr, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FileCache stores one JSON file per key under dir.
type FileCache struct {
	dir string
	ttl time.Duration
	mu  sync.RWMutex
}

type cacheEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

var _ interfaces.Cache = (*FileCache)(nil)

func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		dir = "cache/trend"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl}, nil
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, nil
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Key != key {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(cacheEntry{Key: key, Data: data, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), raw, 0o644)
}

func (c *FileCache) Close() error { return nil }

// CleanupExpired removes entries older than the TTL.
func (c *FileCache) CleanupExpired() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
			os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%x.json", md5.Sum([]byte(key))))
}

// MakeKey joins key parts with '|'.
func MakeKey(parts ...string) string {
	return strings.Join(parts, "|")
}
