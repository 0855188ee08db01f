package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache defines the interface for cache backends.
// Values are opaque bytes so every backend round-trips them identically.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// GetJSON loads key and decodes it into out. A miss or an undecodable entry reports false.
func GetJSON(ctx context.Context, c Cache, key string, out interface{}) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// SetJSON encodes value and stores it under key with the backend's default TTL
func SetJSON(ctx context.Context, c Cache, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.Set(ctx, key, data)
	return nil
}
