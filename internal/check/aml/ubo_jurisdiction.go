package aml

import (
	"context"
	"errors"
	"fmt"

	"vetra/internal/domain"
	"vetra/internal/reference"
	"vetra/pkg/platform/sentinel"
)

// UBOJurisdictionCheck rates the residency jurisdictions of the declared
// ultimate beneficial owners against the country risk table.
type UBOJurisdictionCheck struct {
	store reference.Store
}

func NewUBOJurisdictionCheck(store reference.Store) *UBOJurisdictionCheck {
	return &UBOJurisdictionCheck{store: store}
}

func (c *UBOJurisdictionCheck) Name() string { return "ubo_jurisdiction_risk" }

func (c *UBOJurisdictionCheck) Run(ctx context.Context, cas domain.Case) (domain.CheckResult, error) {
	ubos := cas.UBOs()
	result := domain.CheckResult{
		CheckName: c.Name(),
		RiskLevel: domain.RiskLow,
		Summary:   "no elevated-risk UBO residencies",
	}
	if len(ubos) == 0 {
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"no UBOs declared"}
		result.Summary = "case declares no UBOs; residency risk could not be rated"
		result.Output = map[string]any{"rated": 0}
		return result, nil
	}

	rated := make([]map[string]any, 0, len(ubos))
	for _, ubo := range ubos {
		if ubo.Residency == "" {
			result.Escalate(domain.RiskMedium, fmt.Sprintf("UBO %s has no declared residency", ubo.FullName))
			continue
		}
		entry, err := c.store.CountryRisk(ctx, ubo.Residency)
		if errors.Is(err, sentinel.ErrNotFound) {
			result.Escalate(domain.RiskMedium, fmt.Sprintf("UBO residency %q not in risk reference table", ubo.Residency))
			rated = append(rated, map[string]any{"ubo": ubo.FullName, "residency": ubo.Residency, "known": false})
			continue
		}
		if err != nil {
			return domain.CheckResult{}, err
		}

		rated = append(rated, map[string]any{
			"ubo":        ubo.FullName,
			"residency":  ubo.Residency,
			"known":      true,
			"risk_level": entry.RiskLevel,
		})
		if entry.RiskLevel.AtLeast(domain.RiskHigh) {
			result.Flags = append(result.Flags, fmt.Sprintf("UBO %s resident in %s rated %s", ubo.FullName, entry.CountryName, entry.RiskLevel))
		}
		result.RiskLevel = domain.MaxRisk(result.RiskLevel, entry.RiskLevel)
	}

	result.Recommendation = domain.RecommendPass
	if result.RiskLevel.AtLeast(domain.RiskMedium) {
		result.Recommendation = domain.RecommendFlag
	}
	if result.RiskLevel.AtLeast(domain.RiskHigh) {
		result.Summary = "UBO resident in a high-risk jurisdiction"
	}
	result.Output = map[string]any{"rated": len(rated), "residencies": rated}
	return result, nil
}
