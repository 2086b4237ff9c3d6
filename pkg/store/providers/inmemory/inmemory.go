// Package inmemory provides a process-local Store and EventBus suitable for
// tests and local development. Production deployments should use
// store/providers/postgres instead.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/store/iface"
)

// Store is an in-memory implementation of iface.Store.
type Store struct {
	mu          sync.RWMutex
	samples     map[string][]canonicalize.Sample
	finalScores map[string]iface.FinalScore
	jobRoles    map[string]iface.JobRole
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		samples:     make(map[string][]canonicalize.Sample),
		finalScores: make(map[string]iface.FinalScore),
		jobRoles:    make(map[string]iface.JobRole),
	}
}

// PersistSample appends sample to sessionID's history.
func (s *Store) PersistSample(ctx context.Context, sessionID string, sample canonicalize.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[sessionID] = append(s.samples[sessionID], sample)
	return nil
}

// ListSamples returns a copy of sessionID's samples ordered by timestamp
// ascending.
func (s *Store) ListSamples(ctx context.Context, sessionID string) ([]canonicalize.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.samples[sessionID]
	out := make([]canonicalize.Sample, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// PersistFinalScore overwrites any prior final score for the session.
func (s *Store) PersistFinalScore(ctx context.Context, final iface.FinalScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalScores[final.SessionID] = final
	return nil
}

// GetFinalScore returns the persisted final score for sessionID.
func (s *Store) GetFinalScore(ctx context.Context, sessionID string) (iface.FinalScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	final, ok := s.finalScores[sessionID]
	if !ok {
		return iface.FinalScore{}, iface.ErrFinalScoreNotFound
	}
	return final, nil
}

// GetJobRole returns the registered weights for jobRoleID.
func (s *Store) GetJobRole(ctx context.Context, jobRoleID string) (iface.JobRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.jobRoles[jobRoleID]
	if !ok {
		return iface.JobRole{}, iface.ErrJobRoleNotFound
	}
	return role, nil
}

// PutJobRole registers or replaces a job role's weights. Test and seed-data
// helper; not part of iface.Store.
func (s *Store) PutJobRole(role iface.JobRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobRoles[role.ID] = role
}

// EventBus is an in-memory broadcast bus that fans out to registered
// per-session subscriber channels, used by tests and the websocket
// transport's local dev mode.
type EventBus struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

// Event is one broadcast delivered to a subscriber channel.
type Event struct {
	SessionID string
	Name      string
	Payload   any
}

// NewEventBus returns an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[string][]chan Event)}
}

// Subscribe returns a channel that receives every Broadcast for sessionID.
// The channel is never closed by the bus; callers should treat it as a
// best-effort feed and stop reading when their own context ends.
func (b *EventBus) Subscribe(sessionID string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 16)
	b.subs[sessionID] = append(b.subs[sessionID], ch)
	return ch
}

// Broadcast delivers event to every subscriber of sessionID, non-blocking:
// a subscriber whose channel is full misses the event rather than stalling
// the emitter.
func (b *EventBus) Broadcast(ctx context.Context, sessionID string, event string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[sessionID] {
		select {
		case ch <- Event{SessionID: sessionID, Name: event, Payload: payload}:
		default:
		}
	}
	return nil
}
