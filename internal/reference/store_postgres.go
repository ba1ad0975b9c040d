package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vetra/internal/domain"
	"vetra/pkg/platform/sentinel"
)

// PostgresStore reads the reference tables maintained outside the pipeline:
// sanctions_list, entity_registry, country_risk.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore builds a postgres-backed reference store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SearchSanctions(ctx context.Context, token string) ([]domain.SanctionsEntry, error) {
	query := `
		SELECT entity_name, entity_type, program, list_type, country
		FROM sanctions_list
		WHERE entity_name ILIKE $1
		LIMIT 25
	`
	rows, err := s.db.QueryContext(ctx, query, "%"+token+"%")
	if err != nil {
		return nil, fmt.Errorf("query sanctions_list: %w", err)
	}
	defer rows.Close()

	var out []domain.SanctionsEntry
	for rows.Next() {
		var e domain.SanctionsEntry
		if err := rows.Scan(&e.EntityName, &e.EntityType, &e.Program, &e.ListType, &e.Country); err != nil {
			return nil, fmt.Errorf("scan sanctions entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sanctions entries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) RegistryByLEI(ctx context.Context, lei string) (*domain.RegistryEntry, error) {
	query := `
		SELECT lei_code, legal_name, status, country, ein_number, dba_name
		FROM entity_registry
		WHERE lei_code = $1
	`
	return s.scanRegistryRow(s.db.QueryRowContext(ctx, query, lei))
}

func (s *PostgresStore) RegistryByNameToken(ctx context.Context, token string) (*domain.RegistryEntry, error) {
	if strings.TrimSpace(token) == "" {
		return nil, sentinel.ErrNotFound
	}
	query := `
		SELECT lei_code, legal_name, status, country, ein_number, dba_name
		FROM entity_registry
		WHERE legal_name ILIKE $1
		LIMIT 1
	`
	return s.scanRegistryRow(s.db.QueryRowContext(ctx, query, "%"+token+"%"))
}

func (s *PostgresStore) scanRegistryRow(row *sql.Row) (*domain.RegistryEntry, error) {
	var e domain.RegistryEntry
	err := row.Scan(&e.LEICode, &e.LegalName, &e.Status, &e.Country, &e.EIN, &e.DBAName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan registry entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) CountryRisk(ctx context.Context, country string) (*domain.CountryRisk, error) {
	code := strings.ToUpper(country)
	if len(code) > 2 {
		code = code[:2]
	}
	query := `
		SELECT country_name, country_code, fatf_status, risk_level
		FROM country_risk
		WHERE country_name ILIKE $1 OR country_code = $2
	`
	var c domain.CountryRisk
	err := s.db.QueryRowContext(ctx, query, "%"+country+"%", code).
		Scan(&c.CountryName, &c.CountryCode, &c.FATFStatus, &c.RiskLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan country risk: %w", err)
	}
	return &c, nil
}
