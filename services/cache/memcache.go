package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService backs CacheService with a memcached instance. The worker
// uses it to remember which listing URLs answered 429/430, so consecutive
// runs skip them until the cooldown lapses.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService connects to the memcached server at serverAddr.
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get returns the stored cooldown marker. A key that expired or was never
// set comes back as memcache.ErrCacheMiss.
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a cooldown marker that memcached evicts after expiration.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expirationSeconds(expiration),
	})
}

// Delete clears a cooldown before it lapses.
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}

// expirationSeconds converts a duration to memcached's whole-second TTL.
// Sub-second durations round up to 1s; zero in memcached means "never
// expires", which would pin a listing URL in cooldown forever.
func expirationSeconds(d time.Duration) int32 {
	secs := int32(d / time.Second)
	if d > 0 && secs == 0 {
		return 1
	}
	return secs
}
