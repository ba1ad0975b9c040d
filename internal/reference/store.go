// Package reference exposes the externally maintained lookup tables the
// checks read: the sanctions list, the entity verification registry, and the
// FATF country risk table. The pipeline never writes to these.
package reference

import (
	"context"

	"vetra/internal/domain"
)

// Store provides read-only reference lookups. Implementations return
// sentinel.ErrNotFound for single-record lookups that miss; search methods
// return empty slices.
type Store interface {
	// SearchSanctions returns rows whose entity name contains the token,
	// case-insensitive.
	SearchSanctions(ctx context.Context, token string) ([]domain.SanctionsEntry, error)

	// RegistryByLEI looks up the registry by exact LEI code.
	RegistryByLEI(ctx context.Context, lei string) (*domain.RegistryEntry, error)

	// RegistryByNameToken is the fallback lookup: the first registry row whose
	// legal name contains the token, case-insensitive.
	RegistryByNameToken(ctx context.Context, token string) (*domain.RegistryEntry, error)

	// CountryRisk resolves a country by name containment or exact two-letter
	// code.
	CountryRisk(ctx context.Context, country string) (*domain.CountryRisk, error)
}
