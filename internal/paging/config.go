package paging

import (
	"errors"
	"fmt"
)

// Defaults match a list that fills a large screen a few times over.
const (
	DefaultPageSize = 20
	DefaultMaxSize  = 200
)

// Config controls how a Pager loads and retains pages.
type Config struct {
	// PageSize is the number of rows fetched per range query.
	PageSize int
	// EnablePlaceholders makes unloaded positions within the store count
	// report a placeholder. When false the list only exposes the contiguous
	// run of loaded rows and grows as pages arrive.
	EnablePlaceholders bool
	// MaxSize is the number of rows kept in memory before far pages are
	// evicted. Zero disables eviction.
	MaxSize int
	// PrefetchDistance is how far from an accessed position, in rows, pages
	// are loaded ahead of time. Zero means PageSize.
	PrefetchDistance int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:           DefaultPageSize,
		EnablePlaceholders: true,
		MaxSize:            DefaultMaxSize,
	}
}

func (c Config) prefetch() int {
	if c.PrefetchDistance == 0 {
		return c.PageSize
	}
	return c.PrefetchDistance
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return errors.New("page size must be positive")
	}
	if c.PrefetchDistance < 0 {
		return errors.New("prefetch distance must not be negative")
	}
	if c.MaxSize < 0 {
		return errors.New("max size must not be negative")
	}
	if c.MaxSize > 0 && c.MaxSize < c.PageSize+2*c.prefetch() {
		return fmt.Errorf("max size %d is too small: must be at least page size + 2 * prefetch distance (%d)",
			c.MaxSize, c.PageSize+2*c.prefetch())
	}
	return nil
}
