package check

import (
	"vetra/internal/check/aml"
	"vetra/internal/check/kyc"
	"vetra/internal/reference"
	"vetra/internal/screening"
)

// Stage numbers carried on audit entries.
const (
	StageKYC = 1
	StageAML = 2
)

// DefaultRegistry wires the production check sets over a reference store.
func DefaultRegistry(store reference.Store) *Registry {
	matcher := screening.NewMatcher(store)

	r := NewRegistry()
	r.Register(StageKYC, kyc.NewSanctionsCheck(matcher))
	r.Register(StageKYC, kyc.NewUBOSanctionsCheck(matcher))
	r.Register(StageKYC, kyc.NewDirectorSanctionsCheck(matcher))
	r.Register(StageKYC, kyc.NewPEPCheck())
	r.Register(StageKYC, kyc.NewIdentityCheck(store))
	r.Register(StageKYC, kyc.NewEmailDomainCheck())
	r.Register(StageKYC, kyc.NewRegistrationFormatCheck())

	r.Register(StageAML, aml.NewCountryRiskCheck(store))
	r.Register(StageAML, aml.NewUBOJurisdictionCheck(store))
	r.Register(StageAML, aml.NewVolumeCheck())
	r.Register(StageAML, aml.NewQuestionnaireCheck())
	r.Register(StageAML, aml.NewWebsiteCheck())
	return r
}
