package domain

// SanctionsEntry is one row of the externally maintained sanctions reference
// list. Read-only from the pipeline's perspective.
type SanctionsEntry struct {
	EntityName string
	EntityType string
	Program    string
	ListType   string
	Country    string
}

// RegistryEntry is one row of the entity verification registry keyed by LEI,
// carrying the canonical identity fields cross-checked during identity
// verification.
type RegistryEntry struct {
	LEICode   string
	LegalName string
	Status    string
	Country   string
	EIN       string
	DBAName   string
}

// CountryRisk is one row of the FATF-derived jurisdiction risk reference.
type CountryRisk struct {
	CountryName string
	CountryCode string
	FATFStatus  string
	RiskLevel   RiskLevel
}
