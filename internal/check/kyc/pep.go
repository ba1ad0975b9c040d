package kyc

import (
	"context"
	"fmt"

	"vetra/internal/domain"
)

// PEPCheck inspects the politically-exposed-person declarations: the
// case-level declaration plus the per-person flags collected at intake.
type PEPCheck struct{}

func NewPEPCheck() *PEPCheck { return &PEPCheck{} }

func (c *PEPCheck) Name() string { return "pep_check" }

func (c *PEPCheck) Run(_ context.Context, cas domain.Case) (domain.CheckResult, error) {
	result := domain.CheckResult{
		CheckName:      c.Name(),
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Summary:        "no politically exposed persons declared",
	}

	var exposed []string
	for _, p := range cas.Persons {
		if p.IsPEP {
			exposed = append(exposed, p.FullName)
			result.Flags = append(result.Flags, fmt.Sprintf("%s declared as politically exposed (%s)", p.FullName, p.Role))
		}
	}
	if cas.PEPDeclaration && len(exposed) == 0 {
		result.Flags = append(result.Flags, "case-level PEP declaration without a named person")
	}

	if len(result.Flags) > 0 {
		result.RiskLevel = domain.RiskHigh
		result.Recommendation = domain.RecommendFlag
		result.Summary = "politically exposed persons require enhanced due diligence"
	}
	result.Output = map[string]any{
		"declared":        cas.PEPDeclaration,
		"exposed_persons": exposed,
	}
	return result, nil
}
