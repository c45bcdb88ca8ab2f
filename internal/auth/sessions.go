package auth

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thinknows/x-server/internal/model"
)

// sessionRegistry tracks active device sessions per user.  Sessions are
// created when a login supplies device info and live until explicitly
// revoked or pruned for inactivity.
type sessionRegistry struct {
	mu    sync.RWMutex
	clock Clock

	sessions map[string]model.DeviceSession // session id -> session
	byUser   map[string]map[string]bool     // username -> session ids
	owner    map[string]string              // session id -> username
}

func newSessionRegistry(clock Clock) *sessionRegistry {
	return &sessionRegistry{
		clock:    clock,
		sessions: make(map[string]model.DeviceSession),
		byUser:   make(map[string]map[string]bool),
		owner:    make(map[string]string),
	}
}

// open records a new device session for the username and returns it.
func (r *sessionRegistry) open(username string, info model.DeviceInfo) model.DeviceSession {
	now := r.clock.Now()
	s := model.DeviceSession{
		SessionID:        uuid.NewString(),
		DeviceInfo:       info,
		LoginTime:        now,
		LastActivityTime: now,
		IPAddress:        info.IPAddress,
		CurrentDevice:    true,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = s
	set, ok := r.byUser[username]
	if !ok {
		set = make(map[string]bool)
		r.byUser[username] = set
	}
	set[s.SessionID] = true
	r.owner[s.SessionID] = username
	return s
}

// listActive returns the user's sessions, newest login first.
func (r *sessionRegistry) listActive(username string) []model.DeviceSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.DeviceSession, 0, len(r.byUser[username]))
	for id := range r.byUser[username] {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginTime.After(out[j].LoginTime) })
	return out
}

// touch refreshes the last-activity timestamp of a session.  Only the
// owning user can keep a session alive; a foreign session id is ignored.
func (r *sessionRegistry) touch(username, sessionID string) {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner[sessionID] != username {
		return
	}
	if s, ok := r.sessions[sessionID]; ok {
		s.LastActivityTime = now
		r.sessions[sessionID] = s
	}
}

// revoke removes a single session.  The username must own it.
func (r *sessionRegistry) revoke(username, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owner[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if owner != username {
		return ErrSessionForbidden
	}
	r.dropLocked(sessionID, owner)
	return nil
}

// revokeAll removes every session of the username and returns the count.
func (r *sessionRegistry) revokeAll(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id := range r.byUser[username] {
		r.dropLocked(id, username)
		n++
	}
	return n
}

// prune removes sessions idle for longer than maxIdle and returns the count.
func (r *sessionRegistry) prune(maxIdle time.Duration) int {
	cutoff := r.clock.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastActivityTime.Before(cutoff) {
			r.dropLocked(id, r.owner[id])
			n++
		}
	}
	return n
}

func (r *sessionRegistry) dropLocked(sessionID, username string) {
	delete(r.sessions, sessionID)
	delete(r.owner, sessionID)
	if set, ok := r.byUser[username]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.byUser, username)
		}
	}
}
