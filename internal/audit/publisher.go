package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vetra/internal/domain"
	"vetra/pkg/requestcontext"
)

// Publisher captures audit entries. It is append-only and delegates
// persistence to the storage layer so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Record persists the entries, defaulting IDs and timestamps that the caller
// left unset. Timestamps come from the request-scoped clock so a pinned test
// time flows onto the trail.
func (p *Publisher) Record(ctx context.Context, entries ...domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := requestcontext.Now(ctx).UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
	}
	return p.store.Append(ctx, entries...)
}

// Timeline returns the full evidence trail for a case, oldest first.
func (p *Publisher) Timeline(ctx context.Context, caseID string) ([]domain.AuditEntry, error) {
	return p.store.ListByCase(ctx, caseID)
}

// LatestRunByStage picks, for each stage that has run, the entries of its most
// recent run. Retries supersede earlier runs in aggregation while the full
// history stays on record.
func LatestRunByStage(entries []domain.AuditEntry) map[int][]domain.AuditEntry {
	type runRef struct {
		runID   string
		started time.Time
	}
	latest := make(map[int]runRef)
	for _, e := range entries {
		if e.RunID == "" || e.CheckName == "" {
			continue
		}
		ref, ok := latest[e.Stage]
		if !ok || (e.RunID != ref.runID && e.CreatedAt.After(ref.started)) {
			latest[e.Stage] = runRef{runID: e.RunID, started: e.CreatedAt}
		}
	}

	out := make(map[int][]domain.AuditEntry, len(latest))
	for _, e := range entries {
		// Transition entries share the run ID but carry no check; only check
		// executions feed aggregation.
		if e.CheckName == "" {
			continue
		}
		ref, ok := latest[e.Stage]
		if ok && e.RunID == ref.runID {
			out[e.Stage] = append(out[e.Stage], e)
		}
	}
	return out
}
