// Package cases owns persistence of onboarding cases. Cases are created once,
// mutated only through stage-gated transitions, and never deleted.
package cases

import (
	"context"
	"fmt"
	"time"

	"vetra/internal/domain"
)

// Store persists cases. Implementations assign the ID and tracking code at
// creation; stage updates participate in an ambient transaction when one is
// in context.
type Store interface {
	Create(ctx context.Context, cas *domain.Case) error
	Get(ctx context.Context, id string) (*domain.Case, error)
	GetByTrackingCode(ctx context.Context, code string) (*domain.Case, error)

	// UpdateStage moves the case to the given stage and composite risk level.
	UpdateStage(ctx context.Context, id string, stage domain.Stage, risk domain.RiskLevel) error

	// List returns the external projections of all cases, newest first.
	List(ctx context.Context) ([]domain.Projection, error)
}

// trackingScope is the month bucket a tracking sequence counts within.
func trackingScope(now time.Time) string {
	return now.UTC().Format("200601")
}

// trackingCode formats the human-readable case reference, sequential within
// its month.
func trackingCode(scope string, seq int64) string {
	return fmt.Sprintf("ONB-%s-%05d", scope, seq)
}
