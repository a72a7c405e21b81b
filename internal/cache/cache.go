// Package cache stores per-file collection results between runs.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/kamoh/leftovers/pkg/models"
)

// DirName is the cache directory below the project root.
const DirName = ".leftovers/cache"

// Cache provides file-based caching of collector results. An entry is
// valid while the file content and the rule set are unchanged.
type Cache struct {
	dir         string
	fingerprint string
	enabled     bool
}

// Entry represents a cached collector result.
type Entry struct {
	Hash        string             `json:"hash"`
	Fingerprint string             `json:"fingerprint"`
	Result      *models.FileResult `json:"result"`
}

// Dir returns the cache directory of a project.
func Dir(root string) string {
	return filepath.Join(root, filepath.FromSlash(DirName))
}

// New creates a new cache instance. fingerprint identifies the rule set
// the cached results were collected with.
func New(dir, fingerprint string, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	// Ensure cache directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:         dir,
		fingerprint: fingerprint,
		enabled:     true,
	}, nil
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashFile computes a BLAKE3 hash of a file's contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the cached result for a file if the content hash and the
// rule set fingerprint both match.
func (c *Cache) Get(path string, test bool, hash string) (*models.FileResult, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := os.ReadFile(c.keyPath(path, test))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Hash != hash || entry.Fingerprint != c.fingerprint || entry.Result == nil {
		return nil, false
	}
	return entry.Result, true
}

// Put stores a file's result under its content hash.
func (c *Cache) Put(path string, test bool, hash string, res *models.FileResult) error {
	if !c.enabled {
		return nil
	}

	entry := Entry{
		Hash:        hash,
		Fingerprint: c.fingerprint,
		Result:      res,
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(path, test), entryData, 0600)
}

// Invalidate removes a cache entry.
func (c *Cache) Invalidate(path string, test bool) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(path, test))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a file path to an entry path. A file is cached
// separately per test classification since that changes its result.
func (c *Cache) keyPath(path string, test bool) string {
	hash := blake3.Sum256([]byte(path + "\x00" + strconv.FormatBool(test)))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int   `json:"entries"`
	TotalSize int64 `json:"total_size"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		return nil
	})
	return stats, err
}
