package server

import (
	"slices"
	"sync"
	"time"

	"github.com/auravoice/aura-core/core/llms"
)

// SessionStore keeps per-session conversation history across connections so
// a reconnect bearing the same id resumes context. At most one live
// connection holds a session at a time; attaching supersedes the previous
// holder.
type SessionStore struct {
	mu        sync.Mutex
	retention time.Duration
	clock     func() time.Time
	sessions  map[string]*sessionRecord
}

type sessionRecord struct {
	history    []llms.Turn
	generation uint64
	// supersede signals the current live holder to shut down. It must only
	// signal (cancel a context), never block: it runs under the store lock.
	supersede func()
	// expiresAt is zero while a live connection holds the session.
	expiresAt time.Time
}

func NewSessionStore(retention time.Duration) *SessionStore {
	return &SessionStore{
		retention: retention,
		clock:     time.Now,
		sessions:  map[string]*sessionRecord{},
	}
}

// Attachment identifies one live connection's claim on a session. A claim
// from a superseded connection no longer writes back.
type Attachment struct {
	store      *SessionStore
	sessionID  string
	generation uint64
}

// Attach claims the session for a live connection and returns the retained
// history, empty when the session is new or expired. supersede is invoked
// when a later connection claims the same id.
func (s *SessionStore) Attach(sessionID string, supersede func()) (Attachment, []llms.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	record, ok := s.sessions[sessionID]
	if !ok {
		record = &sessionRecord{}
		s.sessions[sessionID] = record
	}
	if record.supersede != nil {
		record.supersede()
	}
	record.supersede = supersede
	record.generation++
	record.expiresAt = time.Time{}

	return Attachment{store: s, sessionID: sessionID, generation: record.generation}, slices.Clone(record.history)
}

// Detach releases the claim and saves the session history for the retention
// window. Detaching a superseded claim is a no-op: the newer connection owns
// the session by then.
func (a Attachment) Detach(history []llms.Turn) {
	if a.store == nil {
		return
	}
	a.store.detach(a.sessionID, a.generation, history)
}

func (s *SessionStore) detach(sessionID string, generation uint64, history []llms.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[sessionID]
	if !ok || record.generation != generation {
		return
	}
	record.supersede = nil
	record.history = slices.Clone(history)
	record.expiresAt = s.clock().Add(s.retention)
	s.pruneLocked()
}

// Len reports how many sessions are currently retained, live included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sessions)
}

func (s *SessionStore) pruneLocked() {
	now := s.clock()
	for id, record := range s.sessions {
		if record.supersede == nil && !record.expiresAt.IsZero() && now.After(record.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
