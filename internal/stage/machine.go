// Package stage owns the case state machine and the service that drives
// check runs, aggregation, and stage advancement.
package stage

import (
	"vetra/internal/domain"
	domainerrors "vetra/pkg/domain-errors"
)

// transitions is the legal-transition table. The main line runs intake
// through KYC and AML to a terminal decision; *_COMPLETE stages may re-enter
// their *_IN_PROGRESS stage for an operator retry, an *_IN_PROGRESS stage may
// re-enter itself to resume after a crash, and a clarification hold loops
// back to the start of review.
var transitions = map[domain.Stage][]domain.Stage{
	domain.StagePendingReview: {
		domain.StageDocumentComplete,
		domain.StageClarificationRequired,
		domain.StageRejected,
		domain.StageCancelled,
	},
	domain.StageDocumentComplete: {
		domain.StageKYCInProgress,
		domain.StageClarificationRequired,
		domain.StageRejected,
		domain.StageCancelled,
	},
	domain.StageKYCInProgress: {
		domain.StageKYCComplete,
		domain.StageKYCInProgress,
		domain.StageRejected,
		domain.StageCancelled,
	},
	domain.StageKYCComplete: {
		domain.StageAMLInProgress,
		domain.StageKYCInProgress,
		domain.StageClarificationRequired,
		domain.StageRejected,
		domain.StageCancelled,
	},
	domain.StageAMLInProgress: {
		domain.StageAMLComplete,
		domain.StageAMLInProgress,
		domain.StageRejected,
		domain.StageCancelled,
	},
	domain.StageAMLComplete: {
		domain.StageApproved,
		domain.StageAMLInProgress,
		domain.StageClarificationRequired,
		domain.StageRejected,
		domain.StageCancelled,
	},
	domain.StageClarificationRequired: {
		domain.StagePendingReview,
		domain.StageRejected,
		domain.StageCancelled,
	},
}

// CanTransition reports whether moving from one stage to another is legal.
func CanTransition(from, to domain.Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a coded invalid-transition error when the move
// is illegal, so handlers surface the specific refusal reason to operators.
func ValidateTransition(from, to domain.Stage) error {
	if CanTransition(from, to) {
		return nil
	}
	return domainerrors.Newf(domainerrors.CodeInvalidTransition,
		"cannot move case from %s to %s", from, to)
}
