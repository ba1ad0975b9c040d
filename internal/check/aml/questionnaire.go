package aml

import (
	"context"
	"fmt"
	"strings"

	"vetra/internal/domain"
)

// Questionnaire score weights. The total can exceed 100 for a worst-case
// submission; the score is capped.
const (
	pointsSOFHighRisk      = 25
	pointsNoAMLProgram     = 20
	pointsUndescribedAML   = 10
	pointsSanctionsExposed = 20
	pointsPEPDeclared      = 15
	pointsNoCorrespondent  = 10
	pointsNoMediaConsent   = 10
	pointsNoSettlement     = 15
)

// highRiskSourcesOfFunds are the declared source-of-funds categories that
// score the full SOF penalty.
var highRiskSourcesOfFunds = map[string]struct{}{
	"crypto":            {},
	"cryptocurrency":    {},
	"gambling":          {},
	"cash intensive":    {},
	"precious metals":   {},
	"private investors": {},
}

// QuestionnaireCheck scores the intake questionnaire declarations on a 0-100
// scale and maps the score to a risk level: >=75 CRITICAL, >=50 HIGH,
// >=25 MEDIUM.
type QuestionnaireCheck struct{}

func NewQuestionnaireCheck() *QuestionnaireCheck { return &QuestionnaireCheck{} }

func (c *QuestionnaireCheck) Name() string { return "aml_questionnaire_score" }

func (c *QuestionnaireCheck) Run(_ context.Context, cas domain.Case) (domain.CheckResult, error) {
	q := cas.Questionnaire
	score := 0
	var flags []string

	if _, risky := highRiskSourcesOfFunds[strings.ToLower(strings.TrimSpace(cas.SourceOfFunds))]; risky {
		score += pointsSOFHighRisk
		flags = append(flags, fmt.Sprintf("high-risk source of funds: %s", cas.SourceOfFunds))
	}
	switch {
	case !q.AMLProgramConfirmed:
		score += pointsNoAMLProgram
		flags = append(flags, "no AML program confirmed")
	case strings.TrimSpace(q.AMLProgramDescription) == "":
		score += pointsUndescribedAML
		flags = append(flags, "AML program confirmed but not described")
	}
	if q.SanctionsExposure {
		score += pointsSanctionsExposed
		flags = append(flags, "declared sanctions exposure")
	}
	if cas.PEPDeclaration {
		score += pointsPEPDeclared
		flags = append(flags, "declared politically exposed persons")
	}
	if strings.TrimSpace(q.CorrespondentBank) == "" {
		score += pointsNoCorrespondent
		flags = append(flags, "no correspondent bank declared")
	}
	if !q.AdverseMediaConsent {
		score += pointsNoMediaConsent
		flags = append(flags, "no adverse-media screening consent")
	}
	if strings.TrimSpace(q.BankName) == "" || strings.TrimSpace(q.RoutingNumber) == "" || strings.TrimSpace(q.AccountNumber) == "" {
		score += pointsNoSettlement
		flags = append(flags, "settlement banking details incomplete")
	}
	if score > 100 {
		score = 100
	}

	result := domain.CheckResult{
		CheckName: c.Name(),
		Flags:     flags,
		Summary:   fmt.Sprintf("questionnaire risk score %d/100", score),
		Output:    map[string]any{"score": score},
	}
	switch {
	case score >= 75:
		result.RiskLevel = domain.RiskCritical
		result.Recommendation = domain.RecommendReject
	case score >= 50:
		result.RiskLevel = domain.RiskHigh
		result.Recommendation = domain.RecommendFlag
	case score >= 25:
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
	default:
		result.RiskLevel = domain.RiskLow
		result.Recommendation = domain.RecommendPass
	}
	return result, nil
}
