package core

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// DiskCache stores compressed results on disk, keyed by a hex content digest.
// Keys are sharded by their first two characters to keep directories small.
type DiskCache struct {
	Root    string
	TTL     time.Duration
	MaxSize int64
}

// Option configures the DiskCache.
type Option func(*DiskCache)

// WithTTL sets the time-to-live for cached items.
func WithTTL(ttl time.Duration) Option {
	return func(c *DiskCache) {
		c.TTL = ttl
	}
}

// WithMaxSize sets the maximum size of the cache in bytes.
func WithMaxSize(size int64) Option {
	return func(c *DiskCache) {
		c.MaxSize = size
	}
}

// NewDiskCache creates a new DiskCache instance with the specified root directory.
func NewDiskCache(root string, opts ...Option) *DiskCache {
	c := &DiskCache{
		Root:    root,
		MaxSize: 1 * 1024 * 1024 * 1024, // Default 1GB
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Find returns the cached bytes for key, or nil, nil on a miss.
func (c *DiskCache) Find(key string) ([]byte, error) {
	path, err := c.buildPath(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil // A cache miss is not an error.
	} else if err != nil {
		return nil, err
	}

	if c.expired(info.ModTime()) {
		_ = os.Remove(path)
		return nil, nil
	}

	cached, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading cache: %w", err)
	}
	return cached, nil
}

// Write stores data under key. Readers never observe a partially written file.
func (c *DiskCache) Write(key string, data []byte) error {
	path, err := c.buildPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename.

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the cached file for key.
func (c *DiskCache) Delete(key string) error {
	path, err := c.buildPath(key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (c *DiskCache) buildPath(key string) (string, error) {
	if len(key) < 3 {
		return "", fmt.Errorf("cache key too short: %q", key)
	}
	for _, r := range key {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r == '-') {
			return "", fmt.Errorf("invalid cache key: %q", key)
		}
	}
	return filepath.Abs(filepath.Join(c.Root, key[:2], key))
}

func (c *DiskCache) expired(modTime time.Time) bool {
	return c.TTL > 0 && time.Since(modTime) > c.TTL
}

type pruningFile struct {
	path    string
	size    int64
	modTime time.Time
}

// Prune deletes expired items, then the oldest items until the cache fits within MaxSize.
func (c *DiskCache) Prune() error {
	var files []pruningFile
	var totalSize int64
	var expired int

	err := filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped; the rest of the cache still gets pruned.
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if c.expired(info.ModTime()) {
			if os.Remove(path) == nil {
				expired++
			}
			return nil
		}
		totalSize += info.Size()
		files = append(files, pruningFile{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking cache dir: %w", err)
	}

	if c.MaxSize <= 0 || totalSize <= c.MaxSize {
		slog.Info("no need to prune",
			"root", filepath.Base(c.Root),
			"size", humanize.Bytes(uint64(totalSize)),
			"limit", humanize.Bytes(uint64(c.MaxSize)),
			"expired", expired,
			"ttl", c.TTL,
		)
		return nil
	}

	// Oldest first.
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	evicted := 0
	for _, f := range files {
		if totalSize <= c.MaxSize {
			break
		}
		if os.Remove(f.path) == nil {
			totalSize -= f.size
			evicted++
		}
	}
	slog.Info("pruned cache",
		"root", filepath.Base(c.Root),
		"size", humanize.Bytes(uint64(totalSize)),
		"expired", expired,
		"evicted", evicted,
	)
	return nil
}
