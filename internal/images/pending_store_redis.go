package images

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPendingRedisPrefix = "autolot:sell-photo:"
	redisPendingOpTimeout     = 2 * time.Second
)

// Hash fields of one pending photo
const (
	fieldContentType = "content_type"
	fieldImage       = "image"
	fieldDecision    = "decision"
	fieldExpiresAt   = "expires_at_ms"
)

// RedisPendingStore keeps approved photos in Redis hashes so any replica can
// accept the sell request that references them. Keys expire with the token.
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	return NewRedisPendingStoreWithPrefix(client, ttl, defaultPendingRedisPrefix)
}

func NewRedisPendingStoreWithPrefix(client *redis.Client, ttl time.Duration, prefix string) *RedisPendingStore {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = defaultPendingRedisPrefix
	}
	return &RedisPendingStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *RedisPendingStore) key(uploadID string) string {
	return s.prefix + uploadID
}

// Put writes the photo and its expiry in one transaction. An empty id means
// the photo could not be stored.
func (s *RedisPendingStore) Put(upload PendingUpload) string {
	if s.client == nil {
		return ""
	}

	decision, err := json.Marshal(upload.Decision)
	if err != nil {
		return ""
	}

	id := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)
	key := s.key(id)

	ctx, cancel := context.WithTimeout(context.Background(), redisPendingOpTimeout)
	defer cancel()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			fieldContentType: upload.ContentType,
			fieldImage:       upload.ImageBytes,
			fieldDecision:    decision,
			fieldExpiresAt:   expiresAt.UnixMilli(),
		})
		pipe.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return ""
	}
	return id
}

func (s *RedisPendingStore) Get(uploadID string) (*PendingUpload, bool) {
	uploadID = strings.TrimSpace(uploadID)
	if s.client == nil || uploadID == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPendingOpTimeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key(uploadID)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	return decodePendingHash(uploadID, fields)
}

// Take reads and unlinks the hash inside MULTI/EXEC, so a token is handed
// to at most one caller.
func (s *RedisPendingStore) Take(uploadID string) (*PendingUpload, bool) {
	uploadID = strings.TrimSpace(uploadID)
	if s.client == nil || uploadID == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPendingOpTimeout)
	defer cancel()

	key := s.key(uploadID)
	var get *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Unlink(ctx, key)
		return nil
	})
	if err != nil {
		return nil, false
	}

	fields := get.Val()
	if len(fields) == 0 {
		return nil, false
	}
	return decodePendingHash(uploadID, fields)
}

func decodePendingHash(uploadID string, fields map[string]string) (*PendingUpload, bool) {
	upload := PendingUpload{
		ID:          uploadID,
		ContentType: fields[fieldContentType],
		ImageBytes:  []byte(fields[fieldImage]),
	}
	if err := json.Unmarshal([]byte(fields[fieldDecision]), &upload.Decision); err != nil {
		return nil, false
	}
	ms, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, false
	}
	upload.ExpiresAt = time.UnixMilli(ms)
	return &upload, true
}

var _ PendingStore = (*RedisPendingStore)(nil)
