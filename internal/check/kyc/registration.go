package kyc

import (
	"context"
	"fmt"

	"vetra/internal/domain"
)

// minRegistrationLength is the shortest plausible registration number after
// separator stripping.
const minRegistrationLength = 5

// RegistrationFormatCheck sanity-checks the declared registration number. It
// is a structural check only; registry correspondence is identity_verify's
// job.
type RegistrationFormatCheck struct{}

func NewRegistrationFormatCheck() *RegistrationFormatCheck { return &RegistrationFormatCheck{} }

func (c *RegistrationFormatCheck) Name() string { return "registration_format_check" }

func (c *RegistrationFormatCheck) Run(_ context.Context, cas domain.Case) (domain.CheckResult, error) {
	normalized := normalizeEIN(cas.RegistrationNumber)
	result := domain.CheckResult{
		CheckName:      c.Name(),
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Summary:        "registration number format plausible",
		Output: map[string]any{
			"registration_number": cas.RegistrationNumber,
			"normalized_length":   len(normalized),
		},
	}

	switch {
	case normalized == "":
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"registration number missing"}
		result.Summary = "no registration number declared"
	case len(normalized) < minRegistrationLength:
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{fmt.Sprintf("registration number %q shorter than %d characters", cas.RegistrationNumber, minRegistrationLength)}
		result.Summary = "registration number implausibly short"
	}
	return result, nil
}
