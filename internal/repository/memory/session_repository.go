package memory

import (
	"time"

	"ai-taskpilot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionTTL is how long a conversation's short-term memory survives after
// its last update. A record older than this is indistinguishable from absent.
const SessionTTL = 30 * time.Minute

type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository() *SessionRepository {
	return NewSessionRepositoryWithTTL(SessionTTL)
}

// NewSessionRepositoryWithTTL exists for tests that need a short expiry.
func NewSessionRepositoryWithTTL(ttl time.Duration) *SessionRepository {
	// The background sweep is an optimization only; expiry correctness comes
	// from go-cache checking the deadline on every Get.
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{cache: c, ttl: ttl}
}

// Get returns the live record for the key, or (nil, false) when the key is
// unknown or the record has aged past the TTL.
func (r *SessionRepository) Get(key store.SessionKey) (*store.MemoryRecord, bool) {
	if key.IsZero() {
		return nil, false
	}
	if x, found := r.cache.Get(key.String()); found {
		return x.(*store.MemoryRecord), true
	}
	return nil, false
}

// Save overwrites the record and resets its expiry clock.
func (r *SessionRepository) Save(key store.SessionKey, record *store.MemoryRecord) {
	if key.IsZero() {
		return
	}
	record.Touch()
	r.cache.Set(key.String(), record, cache.DefaultExpiration)
}

// SetCandidates replaces the waiting-room id list for the session.
func (r *SessionRepository) SetCandidates(key store.SessionKey, ids []string) {
	record, found := r.Get(key)
	if !found {
		record = store.NewMemoryRecord()
	}
	record.LastCandidates = ids
	r.Save(key, record)
}

// SetPendingAction parks a destructive batch until the user confirms it.
func (r *SessionRepository) SetPendingAction(key store.SessionKey, pending *store.PendingAction) {
	record, found := r.Get(key)
	if !found {
		record = store.NewMemoryRecord()
	}
	record.Pending = pending
	r.Save(key, record)
}

// ClearPending drops the parked action without touching candidates.
func (r *SessionRepository) ClearPending(key store.SessionKey) {
	record, found := r.Get(key)
	if !found {
		return
	}
	record.Pending = nil
	r.Save(key, record)
}

// ClearCandidates drops the waiting-room list, typically after an
// id-addressed execution consumed it.
func (r *SessionRepository) ClearCandidates(key store.SessionKey) {
	record, found := r.Get(key)
	if !found {
		return
	}
	record.LastCandidates = nil
	r.Save(key, record)
}

// Delete removes the session outright.
func (r *SessionRepository) Delete(key store.SessionKey) {
	if key.IsZero() {
		return
	}
	r.cache.Delete(key.String())
}
