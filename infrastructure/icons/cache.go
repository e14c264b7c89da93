// ABOUTME: Disk-backed cache recording when feed icons were last fetched
// ABOUTME: One JSON file per hashed URL with atomic writes and a 7-day sweep

package icons

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yana/core/interfaces"
)

// DefaultTTL is how long a cached icon stays fresh
const DefaultTTL = 7 * 24 * time.Hour

// entry is the on-disk file content
type entry struct {
	URL      string    `json:"url"`
	CachedAt time.Time `json:"cachedAt"`
}

// Cache tracks icon fetch times on disk
type Cache struct {
	dir    string
	ttl    time.Duration
	logger interfaces.Logger
}

// NewCache creates the icon cache rooted at dir (default ./cache/icons).
// A non-positive ttl falls back to DefaultTTL.
func NewCache(dir string, ttl time.Duration, logger interfaces.Logger) (*Cache, error) {
	if dir == "" {
		dir = filepath.Join("cache", "icons")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{dir: dir, ttl: ttl, logger: logger}, nil
}

// fileName maps a URL to its cache file: base64 with /+= rewritten to _
func (c *Cache) fileName(url string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(url))
	encoded = strings.NewReplacer("/", "_", "+", "_", "=", "_").Replace(encoded)
	return filepath.Join(c.dir, encoded+".cache")
}

// Fresh reports whether the URL was cached within the TTL
func (c *Cache) Fresh(url string) bool {
	data, err := os.ReadFile(c.fileName(url))
	if err != nil {
		return false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}

	return time.Since(e.CachedAt) < c.ttl
}

// Put records the URL as fetched now. Writes are atomic (tmp + rename).
func (c *Cache) Put(url string) error {
	e := entry{URL: url, CachedAt: time.Now().UTC()}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	target := c.fileName(url)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// Sweep drops entries older than the TTL
func (c *Cache) Sweep() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".cache") {
			continue
		}

		path := filepath.Join(c.dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var e entry
		if err := json.Unmarshal(data, &e); err != nil || time.Since(e.CachedAt) >= c.ttl {
			if err := os.Remove(path); err != nil && c.logger != nil {
				c.logger.Warn("icon cache sweep failed", map[string]interface{}{
					"file":  path,
					"error": err.Error(),
				})
			}
		}
	}

	return nil
}
