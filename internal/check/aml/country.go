// Package aml holds the checks registered for the AML stage: jurisdiction
// risk, UBO residency risk, expected-volume plausibility, the questionnaire
// score, and the website review.
package aml

import (
	"context"
	"errors"
	"fmt"

	"vetra/internal/domain"
	"vetra/internal/reference"
	"vetra/pkg/platform/sentinel"
)

// CountryRiskCheck rates the jurisdictions the applicant operates in against
// the FATF country risk table. The highest-rated country sets the level; a
// country absent from the table is itself a MEDIUM signal, not a pass.
type CountryRiskCheck struct {
	store reference.Store
}

func NewCountryRiskCheck(store reference.Store) *CountryRiskCheck {
	return &CountryRiskCheck{store: store}
}

func (c *CountryRiskCheck) Name() string { return "country_risk" }

func (c *CountryRiskCheck) Run(ctx context.Context, cas domain.Case) (domain.CheckResult, error) {
	countries := make([]string, 0, len(cas.CountriesOperation)+1)
	if cas.Jurisdiction != "" {
		countries = append(countries, cas.Jurisdiction)
	}
	for _, country := range cas.CountriesOperation {
		if country != cas.Jurisdiction {
			countries = append(countries, country)
		}
	}

	result := domain.CheckResult{
		CheckName: c.Name(),
		RiskLevel: domain.RiskLow,
		Summary:   "no elevated-risk jurisdictions",
	}
	if len(countries) == 0 {
		result.RiskLevel = domain.RiskMedium
		result.Flags = []string{"no operating jurisdictions declared"}
		result.Summary = "case declares no jurisdictions; country risk could not be rated"
	}

	rated := make([]map[string]any, 0, len(countries))
	for _, country := range countries {
		entry, err := c.store.CountryRisk(ctx, country)
		if errors.Is(err, sentinel.ErrNotFound) {
			result.Escalate(domain.RiskMedium, fmt.Sprintf("country %q not in risk reference table", country))
			rated = append(rated, map[string]any{"country": country, "known": false})
			continue
		}
		if err != nil {
			return domain.CheckResult{}, err
		}

		rated = append(rated, map[string]any{
			"country":     country,
			"known":       true,
			"fatf_status": entry.FATFStatus,
			"risk_level":  entry.RiskLevel,
		})
		if entry.RiskLevel.AtLeast(domain.RiskHigh) {
			result.Flags = append(result.Flags, fmt.Sprintf("%s rated %s (%s)", entry.CountryName, entry.RiskLevel, entry.FATFStatus))
		}
		result.RiskLevel = domain.MaxRisk(result.RiskLevel, entry.RiskLevel)
	}

	switch {
	case result.RiskLevel.AtLeast(domain.RiskCritical):
		result.Recommendation = domain.RecommendReject
		result.Summary = "operations in a critically rated jurisdiction"
	case result.RiskLevel.AtLeast(domain.RiskMedium):
		result.Recommendation = domain.RecommendFlag
		if result.RiskLevel.AtLeast(domain.RiskHigh) {
			result.Summary = "operations in a high-risk jurisdiction"
		}
	default:
		result.Recommendation = domain.RecommendPass
	}
	result.Output = map[string]any{"countries": rated}
	return result, nil
}
