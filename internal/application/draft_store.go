package application

import (
	"sync"
	"time"

	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/google/uuid"
)

// draftEntry serializes transitions on one workflow instance.
type draftEntry struct {
	mu       sync.Mutex
	workflow *reservation.Workflow
	lastSeen time.Time
}

// DraftStore keeps live workflow instances in memory. Drafts are never
// persisted; an idle draft is dropped by Sweep.
type DraftStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*draftEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewDraftStore creates a DraftStore whose drafts expire after ttl of inactivity.
func NewDraftStore(ttl time.Duration) *DraftStore {
	return &DraftStore{
		entries: make(map[uuid.UUID]*draftEntry),
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Put registers a new workflow.
func (s *DraftStore) Put(wf *reservation.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[wf.ID()] = &draftEntry{workflow: wf, lastSeen: s.now()}
}

// With runs fn while holding the workflow's lock.
func (s *DraftStore) With(id uuid.UUID, fn func(wf *reservation.Workflow) error) error {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok {
		entry.lastSeen = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return apperr.NewNotFoundError("Booking draft", id.String())
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.workflow)
}

// Delete discards a draft. It reports whether the draft existed.
func (s *DraftStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Sweep drops drafts idle for longer than the TTL and returns how many
// were removed.
func (s *DraftStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live drafts.
func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
