package images

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPendingMaxEntries = 500
	defaultPendingMaxBytes   = 256 << 20
)

// InMemoryPendingStore keeps approved uploads in memory until a sell request claims them.
// The oldest uploads are evicted once the entry or byte limit is exceeded.
type InMemoryPendingStore struct {
	mu         sync.Mutex
	uploads    map[string]PendingUpload
	order      []string
	bytes      int
	ttl        time.Duration
	maxEntries int
	maxBytes   int
}

// NewInMemoryPendingStore creates a pending store with the provided TTL and default limits.
func NewInMemoryPendingStore(ttl time.Duration) *InMemoryPendingStore {
	return NewInMemoryPendingStoreWithLimits(ttl, defaultPendingMaxEntries, defaultPendingMaxBytes)
}

// NewInMemoryPendingStoreWithLimits creates a pending store bounded by entry count and total bytes.
func NewInMemoryPendingStoreWithLimits(ttl time.Duration, maxEntries, maxBytes int) *InMemoryPendingStore {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultPendingMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = defaultPendingMaxBytes
	}

	return &InMemoryPendingStore{
		uploads:    make(map[string]PendingUpload),
		ttl:        ttl,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

// Put stores an approved upload and returns its token id.
func (s *InMemoryPendingStore) Put(upload PendingUpload) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.cleanupLocked(now)

	id := uuid.NewString()
	upload.ID = id
	upload.ExpiresAt = now.Add(s.ttl)
	upload.ImageBytes = append([]byte(nil), upload.ImageBytes...)

	s.uploads[id] = upload
	s.order = append(s.order, id)
	s.bytes += len(upload.ImageBytes)

	for len(s.uploads) > s.maxEntries || (s.bytes > s.maxBytes && len(s.order) > 1) {
		s.removeLocked(s.order[0])
	}

	return id
}

// Get fetches an upload token.
func (s *InMemoryPendingStore) Get(uploadID string) (*PendingUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(time.Now())

	upload, ok := s.uploads[uploadID]
	if !ok {
		return nil, false
	}

	copyUpload := upload
	return &copyUpload, true
}

// Take fetches an upload token and removes it under the same lock.
func (s *InMemoryPendingStore) Take(uploadID string) (*PendingUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(time.Now())

	upload, ok := s.uploads[uploadID]
	if !ok {
		return nil, false
	}
	s.removeLocked(uploadID)
	return &upload, true
}

// Len returns the number of live tokens
func (s *InMemoryPendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

func (s *InMemoryPendingStore) removeLocked(uploadID string) {
	upload, ok := s.uploads[uploadID]
	if !ok {
		return
	}
	delete(s.uploads, uploadID)
	s.bytes -= len(upload.ImageBytes)

	for i, id := range s.order {
		if id == uploadID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *InMemoryPendingStore) cleanupLocked(now time.Time) {
	// order is insertion order and every upload shares the same TTL,
	// so expired entries are always at the front
	for len(s.order) > 0 {
		upload := s.uploads[s.order[0]]
		if !now.After(upload.ExpiresAt) {
			return
		}
		s.removeLocked(s.order[0])
	}
}

var _ PendingStore = (*InMemoryPendingStore)(nil)
