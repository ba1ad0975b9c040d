package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	id UUID PRIMARY KEY,
	tracking_code TEXT NOT NULL UNIQUE,
	legal_name TEXT NOT NULL,
	registration_number TEXT NOT NULL DEFAULT '',
	tax_id TEXT NOT NULL DEFAULT '',
	lei TEXT NOT NULL DEFAULT '',
	dba_name TEXT NOT NULL DEFAULT '',
	jurisdiction TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	source_of_funds TEXT NOT NULL DEFAULT '',
	expected_volume TEXT NOT NULL DEFAULT '',
	incorporation_date TIMESTAMPTZ,
	entity_type TEXT NOT NULL DEFAULT '',
	countries_operation TEXT[] NOT NULL DEFAULT '{}',
	pep_declaration BOOLEAN NOT NULL DEFAULT FALSE,
	questionnaire JSONB NOT NULL DEFAULT '{}',
	stage TEXT NOT NULL,
	risk_level TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cases_stage ON cases(stage);

CREATE TABLE IF NOT EXISTS case_persons (
	id UUID PRIMARY KEY,
	case_id UUID NOT NULL REFERENCES cases(id),
	full_name TEXT NOT NULL,
	role TEXT NOT NULL,
	residency TEXT NOT NULL DEFAULT '',
	is_pep BOOLEAN NOT NULL DEFAULT FALSE,
	ownership_pct DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_case_persons_case ON case_persons(case_id);

CREATE TABLE IF NOT EXISTS tracking_counters (
	scope TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id UUID PRIMARY KEY,
	run_id TEXT NOT NULL DEFAULT '',
	case_id UUID NOT NULL,
	stage INT NOT NULL DEFAULT 0,
	check_name TEXT NOT NULL DEFAULT '',
	input_snapshot JSONB NOT NULL DEFAULT 'null',
	output JSONB NOT NULL DEFAULT 'null',
	risk_level TEXT NOT NULL DEFAULT '',
	recommendation TEXT NOT NULL DEFAULT '',
	flags JSONB NOT NULL DEFAULT 'null',
	summary TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_case ON audit_entries(case_id, created_at);

CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_unpublished ON outbox(created_at) WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS sanctions_list (
	id BIGSERIAL PRIMARY KEY,
	entity_name TEXT NOT NULL,
	entity_type TEXT NOT NULL DEFAULT '',
	program TEXT NOT NULL DEFAULT '',
	list_type TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sanctions_name ON sanctions_list(entity_name);

CREATE TABLE IF NOT EXISTS entity_registry (
	lei_code TEXT PRIMARY KEY,
	legal_name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	ein_number TEXT NOT NULL DEFAULT '',
	dba_name TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_entity_registry_name ON entity_registry(legal_name);

CREATE TABLE IF NOT EXISTS country_risk (
	country_code TEXT PRIMARY KEY,
	country_name TEXT NOT NULL,
	fatf_status TEXT NOT NULL DEFAULT '',
	risk_level TEXT NOT NULL
);
`

// Migrate applies the schema. Statements are idempotent so startup can run
// this unconditionally.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return nil
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
