// Package check defines the check contract and the runner that executes a
// stage's check set against a case.
package check

import (
	"context"
	"fmt"

	"vetra/internal/domain"
)

// Check is one discrete risk assessment. Implementations are pure functions of
// the case snapshot: they read reference data, never mutate the case, and
// derive the recommendation deterministically from the risk level.
type Check interface {
	// Name is the stable identifier recorded on audit entries and looked up in
	// the aggregator's weight table.
	Name() string

	// Run evaluates the case. An error means required evidence could not be
	// fetched; the runner converts it into a fail-soft result rather than
	// aborting the stage.
	Run(ctx context.Context, cas domain.Case) (domain.CheckResult, error)
}

// Unavailable is the fail-soft result recorded when a check's evidence lookup
// fails. Unavailable evidence is elevated risk, never a crash and never a
// silent pass.
func Unavailable(name string, err error) domain.CheckResult {
	return domain.CheckResult{
		CheckName:      name,
		RiskLevel:      domain.RiskHigh,
		Recommendation: domain.RecommendFlag,
		Flags:          []string{fmt.Sprintf("evidence unavailable: %v", err)},
		Summary:        "required evidence lookup failed; treating as elevated risk",
		Output:         map[string]any{"error": err.Error()},
	}
}

// Recommend maps a risk level to the standard per-check disposition:
// CRITICAL rejects, HIGH flags, everything else passes. Checks with a
// different policy set the recommendation themselves.
func Recommend(level domain.RiskLevel) domain.Recommendation {
	switch {
	case level.AtLeast(domain.RiskCritical):
		return domain.RecommendReject
	case level.AtLeast(domain.RiskHigh):
		return domain.RecommendFlag
	default:
		return domain.RecommendPass
	}
}
