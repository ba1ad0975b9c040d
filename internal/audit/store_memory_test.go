package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vetra/internal/domain"
	"vetra/pkg/requestcontext"
)

type AuditStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *MemoryStore
}

func (s *AuditStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
}

func TestAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) entry(caseID, runID, check string, at time.Time) domain.AuditEntry {
	return domain.AuditEntry{
		ID:             runID + "/" + check,
		RunID:          runID,
		CaseID:         caseID,
		Stage:          1,
		CheckName:      check,
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Actor:          domain.ActorRuleBased,
		CreatedAt:      at,
	}
}

// TestRoundTrip verifies persisted entries come back value-exact.
func (s *AuditStoreSuite) TestRoundTrip() {
	s.Run("preserves flag ordering and the output payload", func() {
		entry := s.entry("case-1", "run-1", "sanctions_check", time.Now())
		entry.Flags = []string{"zeta first", "alpha second", "mid last"}
		entry.Output = map[string]any{
			"hits":   []string{"Crimson Star Trading"},
			"tokens": []string{"crimson"},
			"nested": map[string]any{"score": 42},
		}

		s.Require().NoError(s.store.Append(s.ctx, entry))

		loaded, err := s.store.ListByCase(s.ctx, "case-1")
		s.Require().NoError(err)
		s.Require().Len(loaded, 1)
		s.Equal(entry.Flags, loaded[0].Flags)
		s.Equal(entry.Output, loaded[0].Output)
	})

	s.Run("callers cannot mutate the recorded trail", func() {
		entry := s.entry("case-2", "run-1", "pep_check", time.Now())
		entry.Flags = []string{"original"}
		s.Require().NoError(s.store.Append(s.ctx, entry))

		entry.Flags[0] = "tampered"
		loaded, err := s.store.ListByCase(s.ctx, "case-2")
		s.Require().NoError(err)
		s.Equal([]string{"original"}, loaded[0].Flags)

		loaded[0].Flags[0] = "tampered again"
		reloaded, err := s.store.ListByCase(s.ctx, "case-2")
		s.Require().NoError(err)
		s.Equal([]string{"original"}, reloaded[0].Flags)
	})
}

// TestOrdering verifies the per-case total order by creation time.
func (s *AuditStoreSuite) TestOrdering() {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Append(s.ctx,
		s.entry("case-1", "run-2", "sanctions_check", base.Add(time.Hour)),
		s.entry("case-1", "run-1", "sanctions_check", base),
		s.entry("case-other", "run-9", "pep_check", base.Add(2*time.Hour)),
	))

	loaded, err := s.store.ListByCase(s.ctx, "case-1")
	s.Require().NoError(err)
	s.Require().Len(loaded, 2)
	s.Equal("run-1", loaded[0].RunID)
	s.Equal("run-2", loaded[1].RunID)
}

// TestRecordDefaults verifies the publisher fills IDs and timestamps from the
// request-scoped clock.
func (s *AuditStoreSuite) TestRecordDefaults() {
	pinned := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, pinned)

	entry := s.entry("case-1", "run-1", "sanctions_check", time.Time{})
	entry.ID = ""
	s.Require().NoError(NewPublisher(s.store).Record(ctx, entry))

	loaded, err := s.store.ListByCase(s.ctx, "case-1")
	s.Require().NoError(err)
	s.Require().Len(loaded, 1)
	s.NotEmpty(loaded[0].ID)
	s.Equal(pinned, loaded[0].CreatedAt)
}

// TestLatestRunByStage verifies retry supersession in aggregation input.
func (s *AuditStoreSuite) TestLatestRunByStage() {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	first := []domain.AuditEntry{
		s.entry("case-1", "run-1", "sanctions_check", base),
		s.entry("case-1", "run-1", "pep_check", base),
	}
	retry := []domain.AuditEntry{
		s.entry("case-1", "run-2", "sanctions_check", base.Add(time.Minute)),
		s.entry("case-1", "run-2", "pep_check", base.Add(time.Minute)),
	}
	s.Require().NoError(s.store.Append(s.ctx, first...))
	s.Require().NoError(s.store.Append(s.ctx, retry...))

	entries, err := s.store.ListByCase(s.ctx, "case-1")
	s.Require().NoError(err)
	s.Len(entries, 4, "retries never erase history")

	latest := LatestRunByStage(entries)
	s.Require().Len(latest[1], 2)
	for _, e := range latest[1] {
		s.Equal("run-2", e.RunID)
	}
}

// TestLatestRunByStageSkipsTransitions verifies that stage transition entries,
// which share the run ID but name no check, never enter aggregation input.
func (s *AuditStoreSuite) TestLatestRunByStageSkipsTransitions() {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	completion := s.entry("case-1", "run-1", "", base.Add(time.Second))
	completion.ID = "run-1/completed"
	completion.Summary = "stage completed at composite 0.00 (LOW)"

	entries := []domain.AuditEntry{
		s.entry("case-1", "run-1", "sanctions_check", base),
		s.entry("case-1", "run-1", "pep_check", base),
		completion,
	}

	latest := LatestRunByStage(entries)
	s.Require().Len(latest[1], 2)
	for _, e := range latest[1] {
		s.NotEmpty(e.CheckName)
	}
}
