package repository

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/affeed/affeed/internal/model"
)

// Session is the per-user session state: the active identity, the screen
// currently shown, and the draft under composition. Everything here is
// memory-resident and discarded on process end.
type Session struct {
	ID        string
	UserID    string
	Screen    string
	Draft     model.Draft
	UpdatedAt time.Time
}

// SessionStore holds live sessions behind a single mutex. Mutations go
// through Update so read-modify-write cycles on the draft are atomic.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	onEvict  func(Session)
}

// NewSessionStore creates the store. onEvict runs for every session
// removed by expiry or Delete, so the owner can release draft resources;
// it may be nil.
func NewSessionStore(ttl time.Duration, onEvict func(Session)) *SessionStore {
	st := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		onEvict:  onEvict,
	}

	go st.cleanupLoop()

	return st
}

// Create opens a session for the given roster identity, starting on the
// feed screen with an empty draft.
func (st *SessionStore) Create(userID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Screen:    model.ScreenFeed,
		UpdatedAt: time.Now(),
	}
	st.sessions[s.ID] = s

	return copySession(s)
}

// Get returns a snapshot of the session.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(s), nil
}

// Update applies fn to the session under the store lock and returns the
// resulting snapshot.
func (st *SessionStore) Update(id string, fn func(*Session) error) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	err := fn(s)
	if err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now()

	return copySession(s), nil
}

// Delete removes the session and runs the eviction hook.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if ok && st.onEvict != nil {
		st.onEvict(*s)
	}
}

func (st *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		st.evictExpired()
	}
}

func (st *SessionStore) evictExpired() {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	var evicted []Session
	for id, s := range st.sessions {
		if s.UpdatedAt.Before(cutoff) {
			evicted = append(evicted, *s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	if st.onEvict != nil {
		for _, s := range evicted {
			st.onEvict(s)
		}
	}
}

func copySession(s *Session) *Session {
	c := *s
	return &c
}
