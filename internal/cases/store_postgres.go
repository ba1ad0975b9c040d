package cases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vetra/internal/domain"
	"vetra/pkg/platform/sentinel"
	txcontext "vetra/pkg/platform/tx"
)

// PostgresStore persists cases in the cases and case_persons tables. Tracking
// sequences live in tracking_counters, bumped atomically per month scope.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, cas *domain.Case) error {
	execer := s.execer(ctx)
	now := s.clock().UTC()
	scope := trackingScope(now)

	var seq int64
	err := execer.QueryRowContext(ctx, `
		INSERT INTO tracking_counters (scope, value)
		VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = tracking_counters.value + 1
		RETURNING value
	`, scope).Scan(&seq)
	if err != nil {
		return fmt.Errorf("bump tracking counter: %w", err)
	}

	cas.ID = uuid.NewString()
	cas.TrackingCode = trackingCode(scope, seq)
	if cas.Stage == "" {
		cas.Stage = domain.StagePendingReview
	}
	cas.CreatedAt = now
	cas.UpdatedAt = now

	questionnaire, err := json.Marshal(cas.Questionnaire)
	if err != nil {
		return fmt.Errorf("marshal questionnaire: %w", err)
	}

	query := `
		INSERT INTO cases (
			id, tracking_code, legal_name, registration_number, tax_id,
			lei, dba_name, jurisdiction, website, email,
			source_of_funds, expected_volume, incorporation_date, entity_type,
			countries_operation, pep_declaration, questionnaire,
			stage, risk_level, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`
	if _, err = execer.ExecContext(ctx, query,
		cas.ID, cas.TrackingCode, cas.LegalName, cas.RegistrationNumber, cas.TaxID,
		cas.LEI, cas.DBAName, cas.Jurisdiction, cas.Website, cas.Email,
		cas.SourceOfFunds, cas.ExpectedVolume, cas.IncorporationDate, cas.EntityType,
		pq.Array(cas.CountriesOperation), cas.PEPDeclaration, questionnaire,
		string(cas.Stage), string(cas.RiskLevel), cas.CreatedAt, cas.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert case: %w", err)
	}

	for _, person := range cas.Persons {
		if _, err = execer.ExecContext(ctx, `
			INSERT INTO case_persons (id, case_id, full_name, role, residency, is_pep, ownership_pct)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), cas.ID, person.FullName, string(person.Role), person.Residency, person.IsPEP, person.OwnershipPct); err != nil {
			return fmt.Errorf("insert case person: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Case, error) {
	return s.getWhere(ctx, "id = $1", id)
}

func (s *PostgresStore) GetByTrackingCode(ctx context.Context, code string) (*domain.Case, error) {
	return s.getWhere(ctx, "tracking_code = $1", code)
}

func (s *PostgresStore) getWhere(ctx context.Context, where string, arg any) (*domain.Case, error) {
	query := `
		SELECT id, tracking_code, legal_name, registration_number, tax_id,
		       lei, dba_name, jurisdiction, website, email,
		       source_of_funds, expected_volume, incorporation_date, entity_type,
		       countries_operation, pep_declaration, questionnaire,
		       stage, risk_level, created_at, updated_at
		FROM cases
		WHERE ` + where

	var (
		cas           domain.Case
		countries     pq.StringArray
		questionnaire []byte
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&cas.ID, &cas.TrackingCode, &cas.LegalName, &cas.RegistrationNumber, &cas.TaxID,
		&cas.LEI, &cas.DBAName, &cas.Jurisdiction, &cas.Website, &cas.Email,
		&cas.SourceOfFunds, &cas.ExpectedVolume, &cas.IncorporationDate, &cas.EntityType,
		&countries, &cas.PEPDeclaration, &questionnaire,
		&cas.Stage, &cas.RiskLevel, &cas.CreatedAt, &cas.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan case: %w", err)
	}
	cas.CountriesOperation = countries
	if err := json.Unmarshal(questionnaire, &cas.Questionnaire); err != nil {
		return nil, fmt.Errorf("unmarshal questionnaire: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT full_name, role, residency, is_pep, ownership_pct
		FROM case_persons
		WHERE case_id = $1
		ORDER BY full_name
	`, cas.ID)
	if err != nil {
		return nil, fmt.Errorf("query case persons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var person domain.Person
		if err := rows.Scan(&person.FullName, &person.Role, &person.Residency, &person.IsPEP, &person.OwnershipPct); err != nil {
			return nil, fmt.Errorf("scan case person: %w", err)
		}
		cas.Persons = append(cas.Persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case persons: %w", err)
	}
	return &cas, nil
}

func (s *PostgresStore) UpdateStage(ctx context.Context, id string, stage domain.Stage, risk domain.RiskLevel) error {
	query := `
		UPDATE cases
		SET stage = $2,
		    risk_level = CASE WHEN $3 = '' THEN risk_level ELSE $3 END,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, id, string(stage), string(risk))
	if err != nil {
		return fmt.Errorf("update case stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case stage: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.Projection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tracking_code, stage, risk_level
		FROM cases
		ORDER BY created_at DESC, tracking_code DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var out []domain.Projection
	for rows.Next() {
		var p domain.Projection
		if err := rows.Scan(&p.ID, &p.TrackingCode, &p.Stage, &p.RiskLevel); err != nil {
			return nil, fmt.Errorf("scan case projection: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}
