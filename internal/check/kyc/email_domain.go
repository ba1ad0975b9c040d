package kyc

import (
	"context"
	"strings"

	"vetra/internal/domain"
)

// publicEmailDomains lists consumer mail providers. An institution submitting
// a consumer address for its compliance contact is a red flag.
var publicEmailDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"live.com":       {},
	"aol.com":        {},
	"icloud.com":     {},
	"protonmail.com": {},
	"proton.me":      {},
	"mail.com":       {},
	"gmx.com":        {},
}

// EmailDomainCheck verifies the contact email is on an institutional domain.
type EmailDomainCheck struct{}

func NewEmailDomainCheck() *EmailDomainCheck { return &EmailDomainCheck{} }

func (c *EmailDomainCheck) Name() string { return "email_domain_check" }

func (c *EmailDomainCheck) Run(_ context.Context, cas domain.Case) (domain.CheckResult, error) {
	result := domain.CheckResult{
		CheckName:      c.Name(),
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Summary:        "contact email uses an institutional domain",
		Output:         map[string]any{"email": cas.Email},
	}

	at := strings.LastIndex(cas.Email, "@")
	if cas.Email == "" || at < 0 || at == len(cas.Email)-1 {
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"no usable contact email provided"}
		result.Summary = "contact email missing or malformed"
		return result, nil
	}

	domainPart := strings.ToLower(cas.Email[at+1:])
	result.Output["domain"] = domainPart
	if _, public := publicEmailDomains[domainPart]; public {
		result.RiskLevel = domain.RiskHigh
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"contact email on public provider " + domainPart}
		result.Summary = "institutional applicant using a consumer email provider"
	}
	return result, nil
}
