package aml

import (
	"context"
	"net/url"
	"strings"

	"vetra/internal/domain"
)

// WebsiteCheck verifies a web presence was declared and is at least a
// parseable URL. Content review is the external reasoner's contribution, not
// this check's.
type WebsiteCheck struct{}

func NewWebsiteCheck() *WebsiteCheck { return &WebsiteCheck{} }

func (c *WebsiteCheck) Name() string { return "website_review" }

func (c *WebsiteCheck) Run(_ context.Context, cas domain.Case) (domain.CheckResult, error) {
	result := domain.CheckResult{
		CheckName:      c.Name(),
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Summary:        "web presence declared",
		Output:         map[string]any{"website": cas.Website},
	}

	raw := strings.TrimSpace(cas.Website)
	if raw == "" {
		result.RiskLevel = domain.RiskHigh
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"no website provided"}
		result.Summary = "applicant declares no web presence"
		return result, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"declared website is not a parseable URL"}
		result.Summary = "web presence declared but unusable"
		return result, nil
	}
	result.Output["host"] = parsed.Host
	return result, nil
}
