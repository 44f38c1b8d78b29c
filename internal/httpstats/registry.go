// Package httpstats exposes an optional debug/inspection HTTP surface
// over live codec pipelines: their lifecycle state and queue depth, and
// a static isConfigSupported probe for each of the four pipeline kinds.
// It never drives a pipeline's data path — only internal/pipeline does
// that — and serves its routes through chi + huma.
package httpstats

import (
	"sync"
)

// Session is the inspection seam every pipeline kind in internal/pipeline
// satisfies (VideoEncoder, VideoDecoder, AudioEncoder, AudioDecoder all
// expose Kind/State/QueueSize).
type Session interface {
	Kind() string
	State() string
	QueueSize() int
}

// SessionSnapshot is the JSON-serializable view of one registered session.
type SessionSnapshot struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	State     string `json:"state"`
	QueueSize int    `json:"queueSize"`
}

// Registry tracks every live pipeline a host has registered for
// inspection, keyed by an opaque session ID the host assigns.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Register associates id with a live pipeline session. A second
// Register call with the same id replaces the first.
func (r *Registry) Register(id string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
}

// Unregister drops id, typically called once a pipeline is closed.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Snapshot returns the current state of every registered session. The
// order is unspecified.
func (r *Registry) Snapshot() []SessionSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionSnapshot, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, SessionSnapshot{ID: id, Kind: s.Kind(), State: s.State(), QueueSize: s.QueueSize()})
	}
	return out
}
