package cache

import (
	"time"
)

// CacheService stores short-lived cooldown markers for listing URLs that
// rate-limited us, so consecutive runs do not hammer a blocking site.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
