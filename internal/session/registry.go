// Package session tracks in-flight scans by caller-supplied id and carries
// the cancellation flag each scan's walker polls.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrDuplicateInFlight is returned by Begin when the id is already scanning
	ErrDuplicateInFlight = errors.New("scan already in flight")
	// ErrSessionNotFound is returned when no in-flight scan has the id
	ErrSessionNotFound = errors.New("session not found")
	// ErrEmptyID is returned by Begin for an empty id
	ErrEmptyID = errors.New("empty session id")
)

// Token is a one-shot cancellation flag. Once tripped it never resets.
type Token struct {
	cancelled atomic.Bool
}

// Cancel trips the token. Safe to call more than once.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether the token was tripped
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}

// Session is one accepted scan request
type Session struct {
	ID      string
	Path    string
	Started time.Time

	token Token
}

// Token returns the session's cancellation token
func (s *Session) Token() *Token {
	return &s.token
}

// Registry deduplicates concurrent scan requests by id
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Begin registers a scan of path under id. A second Begin with an id that
// is still in flight fails with ErrDuplicateInFlight and leaves the first
// session untouched.
func (r *Registry) Begin(path, id string) (*Session, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[id]; ok {
		return nil, fmt.Errorf("session %q (%s): %w", id, existing.Path, ErrDuplicateInFlight)
	}

	s := &Session{
		ID:      id,
		Path:    path,
		Started: time.Now(),
	}
	r.sessions[id] = s
	return s, nil
}

// End removes the session. Unknown ids are ignored.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Cancel trips the cancellation token of an in-flight session. The session
// stays registered until its scan unwinds and calls End.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("cancel %q: %w", id, ErrSessionNotFound)
	}
	s.token.Cancel()
	return nil
}

// IsCancelled reports whether the session's token was tripped. Unknown ids
// report false.
func (r *Registry) IsCancelled(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()

	return ok && s.token.Cancelled()
}

// Sessions returns the in-flight sessions, oldest first
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Started.Equal(out[j].Started) {
			return out[i].Started.Before(out[j].Started)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
