package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vetra/internal/domain"
	txcontext "vetra/pkg/platform/tx"
)

// PostgresStore persists audit entries using the transactional outbox
// pattern: every entry lands in audit_entries for querying and in the outbox
// table for Kafka publishing, in the caller's transaction when one is in
// context. The stage advance and its evidence therefore commit or roll back
// together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entries ...domain.AuditEntry) error {
	execer := s.execer(ctx)
	for _, e := range entries {
		if err := s.appendOne(ctx, execer, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) appendOne(ctx context.Context, execer dbExecutor, e domain.AuditEntry) error {
	snapshot, err := json.Marshal(e.InputSnapshot)
	if err != nil {
		return fmt.Errorf("marshal input snapshot: %w", err)
	}
	output, err := json.Marshal(e.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	// Flags go through JSON rather than a text array so ordering round-trips
	// exactly.
	flags, err := json.Marshal(e.Flags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}

	query := `
		INSERT INTO audit_entries (
			id, run_id, case_id, stage, check_name,
			input_snapshot, output, risk_level, recommendation,
			flags, summary, actor, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err = execer.ExecContext(ctx, query,
		e.ID, e.RunID, e.CaseID, e.Stage, e.CheckName,
		snapshot, output, string(e.RiskLevel), string(e.Recommendation),
		flags, e.Summary, e.Actor, e.Duration.Milliseconds(), e.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	outboxQuery := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err = execer.ExecContext(ctx, outboxQuery,
		uuid.New(), "case", e.CaseID, "audit_entry", payload, time.Now(),
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID string) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, run_id, case_id, stage, check_name,
		       input_snapshot, output, risk_level, recommendation,
		       flags, summary, actor, duration_ms, created_at
		FROM audit_entries
		WHERE case_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e          domain.AuditEntry
			snapshot   []byte
			output     []byte
			flags      []byte
			durationMS int64
		)
		if err := rows.Scan(
			&e.ID, &e.RunID, &e.CaseID, &e.Stage, &e.CheckName,
			&snapshot, &output, &e.RiskLevel, &e.Recommendation,
			&flags, &e.Summary, &e.Actor, &durationMS, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal(snapshot, &e.InputSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal input snapshot: %w", err)
		}
		if err := json.Unmarshal(output, &e.Output); err != nil {
			return nil, fmt.Errorf("unmarshal output: %w", err)
		}
		if err := json.Unmarshal(flags, &e.Flags); err != nil {
			return nil, fmt.Errorf("unmarshal flags: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
