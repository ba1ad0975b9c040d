package audit

import (
	"context"
	"sort"
	"sync"

	"vetra/internal/domain"
)

// MemoryStore is the in-memory audit sink used in tests and postgres-less
// wiring. Entries are deep-copied on the way in and out so callers can never
// mutate the recorded trail.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entries ...domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries = append(s.entries, copyEntry(e))
	}
	return nil
}

func (s *MemoryStore) ListByCase(_ context.Context, caseID string) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AuditEntry
	for _, e := range s.entries {
		if e.CaseID == caseID {
			out = append(out, copyEntry(e))
		}
	}
	// Stable keeps append order for entries created in the same instant.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func copyEntry(e domain.AuditEntry) domain.AuditEntry {
	cp := e
	if e.Flags != nil {
		cp.Flags = append([]string(nil), e.Flags...)
	}
	cp.InputSnapshot = copyPayload(e.InputSnapshot)
	cp.Output = copyPayload(e.Output)
	return cp
}

func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	cp := make(map[string]any, len(payload))
	for k, v := range payload {
		cp[k] = v
	}
	return cp
}
