// Package kyc holds the checks registered for the KYC stage: sanctions
// screening of the entity and its personnel, PEP declarations, the registry
// identity cascade, and the structural intake checks.
package kyc

import (
	"context"
	"fmt"

	"vetra/internal/domain"
	"vetra/internal/screening"
)

// SanctionsCheck screens the applicant entity's legal name against the
// sanctions reference list. An entity hit is disqualifying.
type SanctionsCheck struct {
	matcher *screening.Matcher
}

func NewSanctionsCheck(matcher *screening.Matcher) *SanctionsCheck {
	return &SanctionsCheck{matcher: matcher}
}

func (c *SanctionsCheck) Name() string { return "sanctions_check" }

func (c *SanctionsCheck) Run(ctx context.Context, cas domain.Case) (domain.CheckResult, error) {
	report, err := c.matcher.Match(ctx, cas.LegalName)
	if err != nil {
		return domain.CheckResult{}, err
	}

	result := domain.CheckResult{
		CheckName:      c.Name(),
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Summary:        "no sanctions list matches for entity name",
		Output: map[string]any{
			"screened_name": report.Name,
			"tokens":        report.Tokens,
			"hits":          report.Hits,
		},
	}

	switch {
	case report.Insufficient:
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"name insufficiently specific for screening"}
		result.Summary = "entity name yields no screenable tokens; cannot rule out a match"
	case len(report.Hits) > 0:
		result.RiskLevel = domain.RiskCritical
		result.Recommendation = domain.RecommendReject
		result.Summary = fmt.Sprintf("entity name matched %d sanctions list record(s)", len(report.Hits))
		for _, hit := range report.Hits {
			result.Flags = append(result.Flags, fmt.Sprintf("sanctions match: %s (%s)", hit.MatchedName, hit.Program))
		}
	}
	return result, nil
}
