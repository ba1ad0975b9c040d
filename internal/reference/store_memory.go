package reference

import (
	"context"
	"strings"
	"sync"

	"vetra/internal/domain"
	"vetra/pkg/platform/sentinel"
)

// MemoryStore is an in-memory reference store used for tests and for running
// without postgres. Data is loaded once and read-only afterwards; the lock
// only guards the optional Load-after-construction path.
type MemoryStore struct {
	mu        sync.RWMutex
	sanctions []domain.SanctionsEntry
	registry  []domain.RegistryEntry
	countries []domain.CountryRisk
}

// NewMemoryStore builds a store over the given reference data.
func NewMemoryStore(sanctions []domain.SanctionsEntry, registry []domain.RegistryEntry, countries []domain.CountryRisk) *MemoryStore {
	return &MemoryStore{
		sanctions: sanctions,
		registry:  registry,
		countries: countries,
	}
}

// Load replaces the reference data wholesale, mirroring a reference table
// refresh.
func (s *MemoryStore) Load(sanctions []domain.SanctionsEntry, registry []domain.RegistryEntry, countries []domain.CountryRisk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sanctions = sanctions
	s.registry = registry
	s.countries = countries
}

func (s *MemoryStore) SearchSanctions(_ context.Context, token string) ([]domain.SanctionsEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(token)
	var out []domain.SanctionsEntry
	for _, e := range s.sanctions {
		if strings.Contains(strings.ToLower(e.EntityName), needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) RegistryByLEI(_ context.Context, lei string) (*domain.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.registry {
		if e.LEICode == lei {
			entry := e
			return &entry, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) RegistryByNameToken(_ context.Context, token string) (*domain.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(token)
	if needle == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, e := range s.registry {
		if strings.Contains(strings.ToLower(e.LegalName), needle) {
			entry := e
			return &entry, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) CountryRisk(_ context.Context, country string) (*domain.CountryRisk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(country)
	code := strings.ToUpper(country)
	if len(code) > 2 {
		code = code[:2]
	}
	for _, c := range s.countries {
		if strings.Contains(strings.ToLower(c.CountryName), needle) || c.CountryCode == code {
			entry := c
			return &entry, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
