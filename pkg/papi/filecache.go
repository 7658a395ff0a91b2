package papi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	fileCachePrefix   = "cache_"
	fileCacheDirPerm  = 0o750
	fileCacheFilePerm = 0o600
)

// FileCache is a durable Cache that persists one file per entry under a
// directory. The entry's TTL and creation timestamp are stored alongside the
// value in a JSON envelope, so entries survive process restarts.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-backed cache rooted at dir, creating the
// directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	err := os.MkdirAll(dir, fileCacheDirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &FileCache{dir: dir}, nil
}

// Get retrieves an entry. Expired entries are removed and reported absent.
func (c *FileCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
	}

	var entry CacheEntry

	err = json.Unmarshal(data, &entry)
	if err != nil {
		// A corrupt entry is indistinguishable from a missing one.
		_ = os.Remove(c.path(key))

		return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
	}

	if entry.Expired() {
		_ = os.Remove(c.path(key))

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return &entry, nil
}

// Set stores an entry. The write goes through a temporary file and a rename
// so concurrent readers never observe a partially-written entry.
func (c *FileCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, fileCachePrefix+"tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}

	_, err = tmp.Write(data)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("writing cache file: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("closing cache file: %w", err)
	}

	err = os.Chmod(tmp.Name(), fileCacheFilePerm)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("setting cache file permissions: %w", err)
	}

	err = os.Rename(tmp.Name(), c.path(key))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("storing cache file: %w", err)
	}

	return nil
}

// Delete removes an entry.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", err)
	}

	return nil
}

// Clear removes all entries.
func (c *FileCache) Clear(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, fileCachePrefix+"*"))
	if err != nil {
		return fmt.Errorf("listing cache files: %w", err)
	}

	for _, match := range matches {
		err = os.Remove(match)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing cache file: %w", err)
		}
	}

	return nil
}

// Has reports whether a valid entry exists for key.
func (c *FileCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, fileCachePrefix+sanitizeCacheKey(key))
}

// sanitizeCacheKey maps a cache key to a safe file name component.
func sanitizeCacheKey(key string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")

	return replacer.Replace(key)
}
