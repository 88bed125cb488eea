package core

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// Session is the server-side state behind the "id" cookie. A session is
// created anonymous (Author nil) on first visit and bound to an author on
// login. Csrf holds the current anti-forgery token; handlers that render a
// token rotate it by overwriting the field and re-adding the session.
type Session struct {
	ID        string    `json:"id"`
	Author    *Author   `json:"author"`
	Csrf      string    `json:"csrf"`
	CreatedAt time.Time `json:"created_at"`
}

// Invalid reports whether the session carries no authenticated identity.
func (s Session) Invalid() bool {
	return s.Author == nil
}

// VerifyCsrf compares a submitted token against the stored one. A session
// without a token rejects everything.
func (s Session) VerifyCsrf(token string) bool {
	if s.Csrf == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.Csrf), []byte(token)) == 1
}

// SessionStore registers active sessions. Implementations must be safe for
// concurrent use from many request handlers; a session Added is immediately
// visible to Retrieve.
type SessionStore interface {
	Add(ctx context.Context, s Session) error
	// Retrieve returns nil, nil when the id is unknown or expired.
	Retrieve(ctx context.Context, id string) (*Session, error)
	Remove(ctx context.Context, id string) error
}

// MemorySessionStore keeps sessions in process memory with a bounded TTL:
// expired entries are dropped lazily on access and by a periodic sweep.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

const defaultSweepInterval = time.Minute

// NewMemorySessionStore returns a running store. Call Close to stop the
// sweeper. ttl <= 0 falls back to one hour.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.sweep(defaultSweepInterval)
	return s
}

func (s *MemorySessionStore) Add(_ context.Context, sess Session) error {
	s.mu.Lock()
	s.sessions[sess.ID] = memoryEntry{session: sess, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Retrieve(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, nil
	}
	sess := entry.session
	return &sess, nil
}

func (s *MemorySessionStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live entries, expired ones included until swept.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background sweeper.
func (s *MemorySessionStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemorySessionStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for id, entry := range s.sessions {
				if now.After(entry.expiresAt) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
