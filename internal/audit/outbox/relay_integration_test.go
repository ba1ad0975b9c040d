//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"vetra/internal/audit"
	"vetra/internal/audit/outbox"
	"vetra/internal/domain"
	"vetra/pkg/testutil/containers"
)

const testTopic = "vetra.audit.entries"

type RelaySuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	store    *audit.PostgresStore
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.redpanda = containers.NewRedpandaContainer(s.T())
	s.store = audit.NewPostgresStore(s.postgres.DB)
}

func (s *RelaySuite) SetupTest() {
	err := s.postgres.TruncateTables(s.ctx, "audit_entries", "outbox")
	s.Require().NoError(err)
}

func (s *RelaySuite) TestRelayDeliversOutboxRows() {
	caseID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	producer := s.redpanda.NewClient(s.T())
	relay := outbox.NewRelay(s.postgres.DB, producer, testTopic, logger)
	s.Require().NoError(relay.EnsureTopic(s.ctx, 1, 1))

	for i := 0; i < 3; i++ {
		entry := domain.AuditEntry{
			ID:        uuid.NewString(),
			RunID:     uuid.NewString(),
			CaseID:    caseID,
			Stage:     1,
			CheckName: "sanctions_check",
			RiskLevel: domain.RiskLow,
			Actor:     domain.ActorRuleBased,
			CreatedAt: time.Now().UTC(),
		}
		s.Require().NoError(s.store.Append(s.ctx, entry))
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go func() { _ = relay.Run(runCtx) }()

	consumer := s.redpanda.NewClient(s.T(),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)

	received := make(map[string]struct{})
	deadline := time.Now().Add(30 * time.Second)
	for len(received) < 3 && time.Now().Before(deadline) {
		pollCtx, pollCancel := context.WithTimeout(s.ctx, 5*time.Second)
		fetches := consumer.PollFetches(pollCtx)
		pollCancel()
		fetches.EachRecord(func(record *kgo.Record) {
			s.Equal(caseID, string(record.Key), "records are keyed by case for ordering")
			var entry domain.AuditEntry
			s.Require().NoError(json.Unmarshal(record.Value, &entry))
			received[entry.ID] = struct{}{}
		})
	}
	s.Len(received, 3)

	// All rows should be marked published once delivered.
	s.Eventually(func() bool {
		var unpublished int
		err := s.postgres.DB.QueryRowContext(s.ctx,
			`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&unpublished)
		return err == nil && unpublished == 0
	}, 10*time.Second, 250*time.Millisecond)
}
