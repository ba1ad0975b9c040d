// Package audit owns the append-only evidence trail. Every check execution
// and stage transition lands here exactly once; entries are never updated or
// deleted, and the case timeline is read straight off them.
package audit

import (
	"context"

	"vetra/internal/domain"
)

// Store persists audit entries. Append is atomic for the batch it is given;
// postgres implementations participate in an ambient transaction when one is
// in context.
type Store interface {
	Append(ctx context.Context, entries ...domain.AuditEntry) error

	// ListByCase returns every entry for the case ordered by creation time,
	// oldest first.
	ListByCase(ctx context.Context, caseID string) ([]domain.AuditEntry, error)
}
