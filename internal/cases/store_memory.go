package cases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vetra/internal/domain"
	"vetra/pkg/platform/sentinel"
)

// MemoryStore is the in-memory case store used in tests and postgres-less
// wiring.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Case
	counters map[string]int64 // tracking sequence per month scope
	clock    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*domain.Case),
		counters: make(map[string]int64),
		clock:    time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, cas *domain.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	scope := trackingScope(now)
	s.counters[scope]++

	cas.ID = uuid.NewString()
	cas.TrackingCode = trackingCode(scope, s.counters[scope])
	if cas.Stage == "" {
		cas.Stage = domain.StagePendingReview
	}
	cas.CreatedAt = now
	cas.UpdatedAt = now

	s.byID[cas.ID] = copyCase(cas)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cas, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyCase(cas), nil
}

func (s *MemoryStore) GetByTrackingCode(_ context.Context, code string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cas := range s.byID {
		if cas.TrackingCode == code {
			return copyCase(cas), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) UpdateStage(_ context.Context, id string, stage domain.Stage, risk domain.RiskLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cas, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cas.Stage = stage
	if risk != "" {
		cas.RiskLevel = risk
	}
	cas.UpdatedAt = s.clock().UTC()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type stamped struct {
		projection domain.Projection
		createdAt  time.Time
	}
	all := make([]stamped, 0, len(s.byID))
	for _, cas := range s.byID {
		all = append(all, stamped{projection: cas.Project(), createdAt: cas.CreatedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].createdAt.Equal(all[j].createdAt) {
			return all[i].createdAt.After(all[j].createdAt)
		}
		return all[i].projection.TrackingCode > all[j].projection.TrackingCode
	})

	out := make([]domain.Projection, len(all))
	for i, item := range all {
		out[i] = item.projection
	}
	return out, nil
}

func copyCase(cas *domain.Case) *domain.Case {
	cp := *cas
	if cas.Persons != nil {
		cp.Persons = append([]domain.Person(nil), cas.Persons...)
	}
	if cas.CountriesOperation != nil {
		cp.CountriesOperation = append([]string(nil), cas.CountriesOperation...)
	}
	return &cp
}
