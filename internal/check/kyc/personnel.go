package kyc

import (
	"context"
	"fmt"

	"vetra/internal/domain"
	"vetra/internal/screening"
)

// PersonnelSanctionsCheck screens one personnel population (directors or UBOs)
// against the sanctions reference list. A person hit flags the case rather
// than rejecting it outright: false positives on common personal names are
// expected, so the hit goes to an operator.
type PersonnelSanctionsCheck struct {
	matcher   *screening.Matcher
	checkName string
	role      domain.PersonRole
	roleLabel string
}

func NewUBOSanctionsCheck(matcher *screening.Matcher) *PersonnelSanctionsCheck {
	return &PersonnelSanctionsCheck{
		matcher:   matcher,
		checkName: "ubo_sanctions_check",
		role:      domain.RoleUBO,
		roleLabel: "UBO",
	}
}

func NewDirectorSanctionsCheck(matcher *screening.Matcher) *PersonnelSanctionsCheck {
	return &PersonnelSanctionsCheck{
		matcher:   matcher,
		checkName: "director_sanctions_check",
		role:      domain.RoleDirector,
		roleLabel: "director",
	}
}

func (c *PersonnelSanctionsCheck) Name() string { return c.checkName }

func (c *PersonnelSanctionsCheck) Run(ctx context.Context, cas domain.Case) (domain.CheckResult, error) {
	var population []domain.Person
	for _, p := range cas.Persons {
		if p.Role == c.role {
			population = append(population, p)
		}
	}

	result := domain.CheckResult{
		CheckName:      c.Name(),
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Summary:        fmt.Sprintf("no sanctions list matches across %d %s name(s)", len(population), c.roleLabel),
	}

	if len(population) == 0 {
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{fmt.Sprintf("no %ss declared", c.roleLabel)}
		result.Summary = fmt.Sprintf("case declares no %ss; personnel screening could not run", c.roleLabel)
		result.Output = map[string]any{"screened": 0}
		return result, nil
	}

	var (
		reports  []screening.Report
		hitCount int
	)
	for _, person := range population {
		report, err := c.matcher.Match(ctx, person.FullName)
		if err != nil {
			return domain.CheckResult{}, err
		}
		reports = append(reports, report)

		if report.Insufficient {
			result.Escalate(domain.RiskMedium, fmt.Sprintf("%s name %q insufficiently specific for screening", c.roleLabel, person.FullName))
			continue
		}
		for _, hit := range report.Hits {
			hitCount++
			result.Flags = append(result.Flags, fmt.Sprintf("%s %s matched %s (%s)", c.roleLabel, person.FullName, hit.MatchedName, hit.Program))
		}
	}

	if hitCount > 0 {
		result.RiskLevel = domain.RiskHigh
		result.Summary = fmt.Sprintf("%d sanctions list match(es) across %s names; manual review required", hitCount, c.roleLabel)
	}
	result.Recommendation = domain.RecommendPass
	if result.RiskLevel.AtLeast(domain.RiskMedium) {
		result.Recommendation = domain.RecommendFlag
	}
	result.Output = map[string]any{
		"screened": len(population),
		"reports":  reports,
		"hits":     hitCount,
	}
	return result, nil
}
