//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vetra/internal/audit"
	"vetra/internal/domain"
	"vetra/pkg/platform/tx"
	"vetra/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = audit.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(s.ctx, "audit_entries", "outbox")
	s.Require().NoError(err)
}

func newEntry(caseID, runID string, at time.Time) domain.AuditEntry {
	return domain.AuditEntry{
		ID:             uuid.NewString(),
		RunID:          runID,
		CaseID:         caseID,
		Stage:          1,
		CheckName:      "sanctions_check",
		InputSnapshot:  map[string]any{"legal_name": "Meridian Capital Partners LLC"},
		Output:         map[string]any{"hits": float64(0)},
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Flags:          []string{"b-flag", "a-flag"},
		Summary:        "no sanctions matches",
		Actor:          domain.ActorRuleBased,
		Duration:       42 * time.Millisecond,
		CreatedAt:      at,
	}
}

func (s *PostgresStoreSuite) TestAppendRoundTrip() {
	caseID := uuid.NewString()
	entry := newEntry(caseID, uuid.NewString(), time.Now().UTC().Truncate(time.Millisecond))
	s.Require().NoError(s.store.Append(s.ctx, entry))

	got, err := s.store.ListByCase(s.ctx, caseID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(entry.CheckName, got[0].CheckName)
	s.Equal([]string{"b-flag", "a-flag"}, got[0].Flags, "flag order survives storage")
	s.Equal(entry.Duration, got[0].Duration)
	s.Equal("Meridian Capital Partners LLC", got[0].InputSnapshot["legal_name"])

	s.Run("replayed entry id is a no-op", func() {
		s.Require().NoError(s.store.Append(s.ctx, entry))
		again, err := s.store.ListByCase(s.ctx, caseID)
		s.Require().NoError(err)
		s.Len(again, 1)
	})
}

func (s *PostgresStoreSuite) TestAppendWritesOutboxRow() {
	caseID := uuid.NewString()
	s.Require().NoError(s.store.Append(s.ctx, newEntry(caseID, uuid.NewString(), time.Now().UTC())))

	var count int
	err := s.postgres.DB.QueryRowContext(s.ctx, `
		SELECT COUNT(*) FROM outbox
		WHERE aggregate_id = $1 AND event_type = 'audit_entry' AND published_at IS NULL
	`, caseID).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestAppendRollsBackWithTransaction() {
	caseID := uuid.NewString()

	sqlTx, err := s.postgres.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	ctx := tx.WithTx(s.ctx, sqlTx)
	s.Require().NoError(s.store.Append(ctx, newEntry(caseID, uuid.NewString(), time.Now().UTC())))
	s.Require().NoError(sqlTx.Rollback())

	got, err := s.store.ListByCase(s.ctx, caseID)
	s.Require().NoError(err)
	s.Empty(got, "entry and outbox row roll back together")

	var count int
	s.Require().NoError(s.postgres.DB.QueryRowContext(s.ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1`, caseID).Scan(&count))
	s.Zero(count)
}
