package services

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations. The engine uses
// it to memoize image references by prompt so repeated prompts skip
// the image service.
type Cache interface {
	// Ping tests the cache connection
	Ping(ctx context.Context) error

	// Set stores a key-value pair with optional expiration
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Get retrieves a value by key; returns "" when the key is absent
	Get(ctx context.Context, key string) (string, error)

	// Close closes the cache connection
	Close() error
}
