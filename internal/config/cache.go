package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrCacheMissing is returned when no full build has written the cache yet.
var ErrCacheMissing = errors.New("config cache missing, run a full build first")

// CacheVersion is bumped when the cache layout changes.
const CacheVersion = 1

// CacheFile is the cache location relative to the output directory.
var CacheFile = filepath.Join("cache", "config-cache.json")

// Cache is the resolved config snapshot shared by a full build and later
// single-file compiles.
type Cache struct {
	Version int `json:"version"`
	// ConfigFiles are project-relative paths of files that call a define
	// function.
	ConfigFiles []string   `json:"configFiles"`
	Definition  Definition `json:"definition"`
}

// HasConfigFile reports whether rel is a cached config-bearing file.
func (c *Cache) HasConfigFile(rel string) bool {
	i := sort.SearchStrings(c.ConfigFiles, rel)
	return i < len(c.ConfigFiles) && c.ConfigFiles[i] == rel
}

// LoadCache reads the cache from the output directory.
func LoadCache(outputDir string) (*Cache, error) {
	path := filepath.Join(outputDir, CacheFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheMissing, path)
		}
		return nil, fmt.Errorf("reading config cache: %w", err)
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding config cache %s: %w", path, err)
	}
	if c.Version != CacheVersion {
		return nil, fmt.Errorf("%w: %s has version %d, want %d", ErrCacheMissing, path, c.Version, CacheVersion)
	}
	sort.Strings(c.ConfigFiles)
	return &c, nil
}

// SaveCache writes the cache into the output directory.
func SaveCache(outputDir string, c *Cache) error {
	c.Version = CacheVersion
	sort.Strings(c.ConfigFiles)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config cache: %w", err)
	}

	path := filepath.Join(outputDir, CacheFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config cache: %w", err)
	}
	return nil
}
