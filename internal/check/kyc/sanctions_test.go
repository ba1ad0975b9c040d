package kyc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"vetra/internal/domain"
	"vetra/internal/reference"
	"vetra/internal/screening"
)

type SanctionsCheckSuite struct {
	suite.Suite
	ctx     context.Context
	matcher *screening.Matcher
}

func (s *SanctionsCheckSuite) SetupTest() {
	s.ctx = context.Background()
	store := reference.NewMemoryStore([]domain.SanctionsEntry{
		{EntityName: "Crimson Star Trading", EntityType: "entity", Program: "SDN", ListType: "OFAC", Country: "SY"},
		{EntityName: "Dmitri Volkov", EntityType: "individual", Program: "SDN", ListType: "OFAC", Country: "RU"},
	}, nil, nil)
	s.matcher = screening.NewMatcher(store)
}

func TestSanctionsCheckSuite(t *testing.T) {
	suite.Run(t, new(SanctionsCheckSuite))
}

// TestEntityScreening verifies the entity check's disposition policy.
func (s *SanctionsCheckSuite) TestEntityScreening() {
	chk := NewSanctionsCheck(s.matcher)
	s.Equal("sanctions_check", chk.Name())

	s.Run("clean entity passes", func() {
		result, err := chk.Run(s.ctx, domain.Case{LegalName: "Bluewater Robotics"})
		s.Require().NoError(err)
		s.Equal(domain.RiskLow, result.RiskLevel)
		s.Equal(domain.RecommendPass, result.Recommendation)
	})

	s.Run("entity hit is critical and rejecting", func() {
		result, err := chk.Run(s.ctx, domain.Case{LegalName: "Crimson Logistics"})
		s.Require().NoError(err)
		s.Equal(domain.RiskCritical, result.RiskLevel)
		s.Equal(domain.RecommendReject, result.Recommendation)
		s.NotEmpty(result.Flags)
	})

	s.Run("stopword-only name flags insufficiency at MEDIUM", func() {
		result, err := chk.Run(s.ctx, domain.Case{LegalName: "International Holdings Limited"})
		s.Require().NoError(err)
		s.Equal(domain.RiskMedium, result.RiskLevel)
		s.Equal(domain.RecommendFlag, result.Recommendation)
		s.Contains(result.Flags, "name insufficiently specific for screening")
	})
}

// TestPersonnelScreening verifies person hits flag rather than reject.
func (s *SanctionsCheckSuite) TestPersonnelScreening() {
	ubo := NewUBOSanctionsCheck(s.matcher)
	director := NewDirectorSanctionsCheck(s.matcher)

	s.Run("UBO hit is high and flagging, not rejecting", func() {
		result, err := ubo.Run(s.ctx, domain.Case{Persons: []domain.Person{
			{FullName: "Dmitri Volkov", Role: domain.RoleUBO},
		}})
		s.Require().NoError(err)
		s.Equal(domain.RiskHigh, result.RiskLevel)
		s.Equal(domain.RecommendFlag, result.Recommendation)
	})

	s.Run("director population screens independently of UBOs", func() {
		result, err := director.Run(s.ctx, domain.Case{Persons: []domain.Person{
			{FullName: "Dmitri Volkov", Role: domain.RoleUBO},
			{FullName: "Alice Hartmann", Role: domain.RoleDirector},
		}})
		s.Require().NoError(err)
		s.Equal(domain.RiskLow, result.RiskLevel)
		s.Equal(domain.RecommendPass, result.Recommendation)
	})

	s.Run("missing population is a MEDIUM flag", func() {
		result, err := ubo.Run(s.ctx, domain.Case{})
		s.Require().NoError(err)
		s.Equal(domain.RiskMedium, result.RiskLevel)
		s.Contains(result.Flags, "no UBOs declared")
	})
}
