package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Virrpe/onbrd/internal/models"
)

// ExtractorVersion is mixed into every key. Bump it whenever extraction
// rules change so stale entries are never reused.
const ExtractorVersion = "extract-v1"

// Cache stores extracted heuristics on disk, keyed by page content.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory.
// An empty dir disables caching.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key derives the cache key of a page. The key covers:
// - the extractor version
// - the fold height
// - the exact HTML that is extracted (after any perturbation)
func Key(html string, foldHeight int) (string, error) {
	h := sha256.New()

	if err := writeString(h, ExtractorVersion); err != nil {
		return "", err
	}
	if err := writeInt(h, foldHeight); err != nil {
		return "", err
	}
	if err := writeString(h, html); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves cached heuristics if they exist
func (c *Cache) Get(key string) (*models.Heuristics, bool) {
	if c == nil || c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		slog.Debug("Heuristics cache miss", "key", key)
		return nil, false
	}

	var h models.Heuristics
	if err := json.Unmarshal(data, &h); err != nil {
		// Invalid cache entry, treat as miss
		slog.Debug("Ignoring unreadable cache entry", "key", key, "error", err)
		return nil, false
	}
	if len(h.MissingSections()) > 0 {
		return nil, false
	}

	return &h, true
}

// Put stores extracted heuristics in the cache
func (c *Cache) Put(key string, h *models.Heuristics) error {
	if c == nil || c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling heuristics: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	if c == nil || c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Only remove directories that hold nothing but cache entries.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	if len(entries) > 0 {
		hasValidCache := false
		for _, entry := range entries {
			if entry.IsDir() {
				return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
			}
			if filepath.Ext(entry.Name()) == ".json" {
				hasValidCache = true
			} else {
				return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
			}
		}
		if !hasValidCache {
			return fmt.Errorf("no valid cache files found in directory - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Helper functions

func writeString(w io.Writer, s string) error {
	// Null byte delimiter keeps adjacent fields from colliding.
	_, err := w.Write([]byte(s + "\x00"))
	return err
}

func writeInt(w io.Writer, i int) error {
	_, err := fmt.Fprintf(w, "%d\x00", i)
	return err
}
