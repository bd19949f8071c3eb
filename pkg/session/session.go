// Package session manages live editing sessions for the HTTP API.
//
// A session owns one [engine.Engine] and the store it observes, so that a
// client can mutate a web over several requests and read back positions and
// analyses as they settle. Sessions are identified by random UUIDs and expire
// after a period of inactivity.
//
// Engines are single-goroutine objects. Callers must hold the session lock
// (see [Session.Lock]) around every use of the engine or its store.
//
// # Usage
//
//	m := session.NewManager(session.DefaultTTL, engineOpts)
//	sess, err := m.Open("reef", doc.Graph, doc.Seed)
//	if err != nil {
//	    return err
//	}
//	sess.Lock()
//	sess.Engine.Store().AddNode(web.Node{ID: 9, Flags: web.AllFlags})
//	sess.Unlock()
package session

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/foodweb/pkg/engine"
	"github.com/matzehuels/foodweb/pkg/graph"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("session expired")
)

// DefaultTTL is the idle time after which a session expires.
const DefaultTTL = 30 * time.Minute

// Session is one live editing session.
type Session struct {
	ID        string
	Web       string
	Seed      uint64
	Engine    *engine.Engine
	CreatedAt time.Time

	mu        sync.Mutex
	labels    map[int]string
	expiresAt time.Time
}

// Lock acquires exclusive use of the session's engine.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Label returns the display label of node id. Caller must hold the lock.
func (s *Session) Label(id int) string { return s.labels[id] }

// SetLabel records a label. An empty label clears it. Caller must hold the
// lock.
func (s *Session) SetLabel(id int, label string) {
	if label == "" {
		delete(s.labels, id)
		return
	}
	s.labels[id] = label
}

// Labels returns a copy of all labels. Caller must hold the lock.
func (s *Session) Labels() map[int]string { return maps.Clone(s.labels) }

// Graph serializes the session's web. Caller must hold the lock.
func (s *Session) Graph() graph.Graph {
	return graph.FromStore(s.Engine.Store(), s.labels)
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.expiresAt)
}

// Manager holds the open sessions. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	opts     engine.Options
	sessions map[string]*Session
}

// NewManager creates a manager whose sessions expire after ttl of
// inactivity. opts configures every session's engine; its Seed is replaced
// by the seed passed to [Manager.Open].
func NewManager(ttl time.Duration, opts engine.Options) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{ttl: ttl, opts: opts, sessions: make(map[string]*Session)}
}

// Open starts a session on a copy of g. A zero seed keeps the configured
// layout seed.
func (m *Manager) Open(webName string, g graph.Graph, seed uint64) (*Session, error) {
	store, err := graph.ToStore(g)
	if err != nil {
		return nil, err
	}
	opts := m.opts
	if seed != 0 {
		opts.Seed = seed
	}
	eng := engine.New(store, opts)

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Web:       webName,
		Seed:      seed,
		Engine:    eng,
		CreatedAt: now,
		labels:    g.Labels(),
		expiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the session and extends its expiry.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()

	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if sess.IsExpired() {
		delete(m.sessions, id)
		m.mu.Unlock()
		sess.close()
		return nil, ErrExpired
	}
	sess.expiresAt = time.Now().Add(m.ttl)
	m.mu.Unlock()
	return sess, nil
}

// Close ends a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	sess.close()
	return nil
}

// IDs returns the open session IDs in ascending order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.sessions))
}

// Cleanup closes every expired session and returns how many were closed.
func (m *Manager) Cleanup(ctx context.Context) int {
	m.mu.Lock()
	var expired []*Session
	for id, sess := range m.sessions {
		if sess.IsExpired() {
			delete(m.sessions, id)
			expired = append(expired, sess)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Cleanup(ctx)
		}
	}
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	open := slices.Collect(maps.Values(m.sessions))
	clear(m.sessions)
	m.mu.Unlock()

	for _, sess := range open {
		sess.close()
	}
}

// close waits for the session's current holder, then closes its engine. The
// session must already be removed from the manager.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Engine.Close()
}
