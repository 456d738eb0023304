package session

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/internal/access"
)

// storeEntry is one cached principal with its insertion time
type storeEntry struct {
	principal  access.Principal
	insertedAt time.Time
	element    *list.Element
}

// Store is the process-wide principal store: an LRU with TTL keyed by
// subject. It saves a staff lookup on every request of a signed-in session.
// It also holds the tokens signed out before their expiry.
type Store struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*storeEntry
	revoked map[string]time.Time // token digest -> token expiry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// StoreStats represents store statistics
type StoreStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Revoked int     `json:"revoked_tokens"`
}

// NewStore creates a store holding up to maxSize principals for ttl each
func NewStore(maxSize int, ttl time.Duration) *Store {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Store{
		entries: make(map[uuid.UUID]*storeEntry),
		revoked: make(map[string]time.Time),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

func (s *Store) expired(e *storeEntry) bool {
	return s.now().Sub(e.insertedAt) > s.ttl
}

// Get returns a copy of the cached principal, or nil when absent or expired
func (s *Store) Get(subject uuid.UUID) *access.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[subject]
	if !ok || s.expired(entry) {
		s.misses++
		if ok {
			s.remove(subject)
		}
		return nil
	}

	s.lruList.MoveToFront(entry.element)
	s.hits++

	p := entry.principal
	return &p
}

// Put caches a principal under its ID
func (s *Store) Put(p *access.Principal) {
	if p == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[p.ID]; ok {
		entry.principal = *p
		entry.insertedAt = s.now()
		s.lruList.MoveToFront(entry.element)
		return
	}

	if s.lruList.Len() >= s.maxSize {
		s.evictLRU()
	}

	entry := &storeEntry{principal: *p, insertedAt: s.now()}
	entry.element = s.lruList.PushFront(p.ID)
	s.entries[p.ID] = entry
}

// Forget drops a subject, e.g. on sign-out
func (s *Store) Forget(subject uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(subject)
}

// Revoke marks token as signed out until it expires
func (s *Store) Revoke(token string, expiresAt time.Time) {
	if token == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !expiresAt.After(s.now()) {
		return
	}
	s.revoked[tokenDigest(token)] = expiresAt
}

// IsRevoked reports whether token was signed out and has not expired yet
func (s *Store) IsRevoked(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenDigest(token)
	until, ok := s.revoked[key]
	if !ok {
		return false
	}
	if !until.After(s.now()) {
		delete(s.revoked, key)
		return false
	}
	return true
}

// Clear removes all cached principals. Revoked tokens stay revoked.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[uuid.UUID]*storeEntry)
	s.lruList.Init()
}

// Stats returns store statistics
func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := StoreStats{
		Size:    s.lruList.Len(),
		MaxSize: s.maxSize,
		Hits:    s.hits,
		Misses:  s.misses,
		Revoked: len(s.revoked),
	}
	if total := s.hits + s.misses; total > 0 {
		stats.HitRate = float64(s.hits) / float64(total)
	}
	return stats
}

// remove must be called with the lock held
func (s *Store) remove(subject uuid.UUID) {
	if entry, ok := s.entries[subject]; ok {
		s.lruList.Remove(entry.element)
		delete(s.entries, subject)
	}
}

// evictLRU must be called with the lock held
func (s *Store) evictLRU() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	subject := back.Value.(uuid.UUID)
	s.lruList.Remove(back)
	delete(s.entries, subject)
}

// CleanupExpired removes expired principals and revocations of tokens that
// have expired since, and returns how many went
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []uuid.UUID
	for subject, entry := range s.entries {
		if s.expired(entry) {
			expired = append(expired, subject)
		}
	}
	for _, subject := range expired {
		s.remove(subject)
	}

	now := s.now()
	removed := len(expired)
	for key, until := range s.revoked {
		if !until.After(now) {
			delete(s.revoked, key)
			removed++
		}
	}
	return removed
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// StartCleanupWorker removes expired entries every interval until stopCh closes
func (s *Store) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

// Start runs the cleanup worker in the background until Stop
func (s *Store) Start(interval time.Duration) {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.StartCleanupWorker(interval, s.stopCh)
	}()
}

// Stop halts the cleanup worker and empties the store
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		done := s.done
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		s.Clear()
	})
}
