package vault

import (
	"path/filepath"
	"sync"
)

// ConfigCache loads each vault's configuration once and hands out the same
// value until Clear is called. Callers own the cache and pass it to the
// operations that need configuration.
type ConfigCache struct {
	mu      sync.Mutex
	load    func(vaultPath string) (*Config, error)
	entries map[string]*Config
}

// NewConfigCache creates an empty cache backed by LoadConfig.
func NewConfigCache() *ConfigCache {
	return NewConfigCacheWith(LoadConfig)
}

// NewConfigCacheWith creates an empty cache backed by a custom loader.
func NewConfigCacheWith(load func(vaultPath string) (*Config, error)) *ConfigCache {
	return &ConfigCache{load: load, entries: make(map[string]*Config)}
}

// Get returns the cached configuration for vaultPath, loading it on first use.
// Load failures are not cached.
func (c *ConfigCache) Get(vaultPath string) (*Config, error) {
	key := cacheKey(vaultPath)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg, ok := c.entries[key]; ok {
		return cfg, nil
	}
	cfg, err := c.load(vaultPath)
	if err != nil {
		return nil, err
	}
	c.entries[key] = cfg
	return cfg, nil
}

// Clear drops every cached configuration.
func (c *ConfigCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func cacheKey(vaultPath string) string {
	if abs, err := filepath.Abs(vaultPath); err == nil {
		return abs
	}
	return filepath.Clean(vaultPath)
}
