// Package session provides the session registry: the bidirectional map
// between session identifier, connection identifier, and the
// optionally-authenticated username (spec.md §4.2).
//
// Grounded on the teacher's internal/node/peerstore.go peer registry:
// a primary map keyed by identifier, a secondary index for fast reverse
// lookup, and a single RWMutex guarding both consistently.
package session

import (
	"sync"
	"sync/atomic"
)

// ID is an opaque, monotonically assigned session identifier
// (spec.md §3).
type ID = uint64

// ConnectionID is an opaque transport-level connection handle. The
// concrete representation (a google/uuid v4 string, per
// internal/transport) is immaterial to the registry.
type ConnectionID = string

type entry struct {
	connID   ConnectionID
	username string // empty means unauthenticated
}

// Registry is the process-wide session registry.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[ID]*entry
	loggedIn  map[string]ID // username -> session id
	nextID    uint64
}

// New creates an empty session registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[ID]*entry),
		loggedIn: make(map[string]ID),
	}
}

// NextID allocates the next monotonic session identifier. Ids are never
// reused (spec.md §3).
func (r *Registry) NextID() ID {
	return atomic.AddUint64(&r.nextID, 1) - 1
}

// StartSession registers a new session for an accepted connection.
// Fails if id is already present.
func (r *Registry) StartSession(id ID, connID ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return false
	}
	r.sessions[id] = &entry{connID: connID}
	return true
}

// EndSession removes a session, freeing its username from the
// logged-in index if it was authenticated. Called when the underlying
// connection closes.
func (r *Registry) EndSession(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return false
	}
	if e.username != "" {
		delete(r.loggedIn, e.username)
	}
	delete(r.sessions, id)
	return true
}

// Login authenticates session id as username. Fails if the session
// does not exist, username is empty, or username is already logged in
// elsewhere (spec.md §4.2).
func (r *Registry) Login(id ID, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if username == "" {
		return false
	}
	e, ok := r.sessions[id]
	if !ok {
		return false
	}
	if _, taken := r.loggedIn[username]; taken {
		return false
	}

	e.username = username
	r.loggedIn[username] = id
	return true
}

// Logout clears authentication on session id. Fails if the session
// does not exist or is already unauthenticated.
func (r *Registry) Logout(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || e.username == "" {
		return false
	}

	delete(r.loggedIn, e.username)
	e.username = ""
	return true
}

// GetUsername returns the username bound to session id, and whether the
// session exists and is authenticated.
func (r *Registry) GetUsername(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok || e.username == "" {
		return "", false
	}
	return e.username, true
}

// GetSessionID returns the session currently logged in as username.
func (r *Registry) GetSessionID(username string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.loggedIn[username]
	return id, ok
}

// GetConnectionID returns the connection backing session id.
func (r *Registry) GetConnectionID(id ID) (ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	return e.connID, true
}

// IsAuthenticated reports whether session id is currently logged in.
func (r *Registry) IsAuthenticated(id ID) bool {
	_, ok := r.GetUsername(id)
	return ok
}
