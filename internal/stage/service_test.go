package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"vetra/internal/audit"
	"vetra/internal/cases"
	"vetra/internal/check"
	"vetra/internal/domain"
	"vetra/internal/reference"
	"vetra/internal/risk"
	domainerrors "vetra/pkg/domain-errors"
	"vetra/pkg/platform/sentinel"
)

type StageServiceSuite struct {
	suite.Suite
	ctx        context.Context
	service    *Service
	caseStore  *cases.MemoryStore
	auditStore *audit.MemoryStore
}

func (s *StageServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.buildService(reference.NewMemoryStore(
		[]domain.SanctionsEntry{
			{EntityName: "Crimson Star Trading", EntityType: "entity", Program: "SDN", ListType: "OFAC", Country: "SY"},
		},
		[]domain.RegistryEntry{
			{LEICode: "5493001KJTIIGC8Y1R12", LegalName: "Meridian Clearing Corporation", Status: "ACTIVE", Country: "US", EIN: "12-3456789", DBAName: "Meridian Clearing"},
		},
		[]domain.CountryRisk{
			{CountryName: "United States", CountryCode: "US", FATFStatus: "member", RiskLevel: domain.RiskLow},
			{CountryName: "Panama", CountryCode: "PA", FATFStatus: "increased monitoring", RiskLevel: domain.RiskHigh},
		},
	))
}

func (s *StageServiceSuite) buildService(store reference.Store) {
	s.caseStore = cases.NewMemoryStore()
	s.auditStore = audit.NewMemoryStore()

	aggregator, err := risk.NewAggregator(risk.DefaultWeights())
	s.Require().NoError(err)

	runner := check.NewRunner(check.DefaultRegistry(store), nil, nil, nil)
	s.service = NewService(s.caseStore, audit.NewPublisher(s.auditStore), runner, aggregator, nil, nil, nil)
}

func TestStageServiceSuite(t *testing.T) {
	suite.Run(t, new(StageServiceSuite))
}

func (s *StageServiceSuite) submitCleanCase() *domain.Case {
	cas, err := s.service.Submit(s.ctx, &domain.Case{
		LegalName:          "Meridian Clearing Corporation",
		RegistrationNumber: "C1234567",
		TaxID:              "12-3456789",
		LEI:                "5493001KJTIIGC8Y1R12",
		DBAName:            "Meridian Clearing",
		Jurisdiction:       "United States",
		Website:            "https://meridianclearing.example",
		Email:              "compliance@meridianclearing.example",
		SourceOfFunds:      "operating revenue",
		ExpectedVolume:     "100K-1M",
		EntityType:         "Bank",
		Persons: []domain.Person{
			{FullName: "Alice Hartmann", Role: domain.RoleDirector, Residency: "United States"},
			{FullName: "Jonas Keller", Role: domain.RoleUBO, Residency: "United States", OwnershipPct: 60},
		},
		Questionnaire: domain.Questionnaire{
			AMLProgramConfirmed:   true,
			AMLProgramDescription: "dedicated compliance officer, annual independent audit",
			AdverseMediaConsent:   true,
			CorrespondentBank:     "First Continental",
			BankName:              "First Continental",
			RoutingNumber:         "021000021",
			AccountNumber:         "998877",
		},
	})
	s.Require().NoError(err)
	return cas
}

func (s *StageServiceSuite) auditCount(caseID string) int {
	entries, err := s.auditStore.ListByCase(s.ctx, caseID)
	s.Require().NoError(err)
	return len(entries)
}

func (s *StageServiceSuite) TestSubmit() {
	s.Run("creates the case in PENDING_REVIEW with a trail entry", func() {
		cas := s.submitCleanCase()
		s.Equal(domain.StagePendingReview, cas.Stage)
		s.NotEmpty(cas.TrackingCode)
		s.Equal(1, s.auditCount(cas.ID))
	})

	s.Run("resolves a tracking code as well as an ID", func() {
		cas := s.submitCleanCase()
		byCode, err := s.service.Get(s.ctx, cas.TrackingCode)
		s.Require().NoError(err)
		s.Equal(cas.ID, byCode.ID)
	})

	s.Run("rejects a case without a legal name", func() {
		_, err := s.service.Submit(s.ctx, &domain.Case{})
		var coded *domainerrors.Error
		s.Require().ErrorAs(err, &coded)
		s.Equal(domainerrors.CodeBadRequest, coded.Code)
	})
}

func (s *StageServiceSuite) TestInvalidTransitions() {
	s.Run("executing AML on a pending case is refused with no audit entry", func() {
		cas := s.submitCleanCase()
		before := s.auditCount(cas.ID)

		_, err := s.service.Execute(s.ctx, cas.ID, domain.StageAMLInProgress)
		var coded *domainerrors.Error
		s.Require().ErrorAs(err, &coded)
		s.Equal(domainerrors.CodeInvalidTransition, coded.Code)
		s.Equal(before, s.auditCount(cas.ID), "refused transition must not touch the trail")

		reloaded, err := s.service.Get(s.ctx, cas.ID)
		s.Require().NoError(err)
		s.Equal(domain.StagePendingReview, reloaded.Stage, "case left untouched")
	})

	s.Run("approving before AML completion is refused", func() {
		cas := s.submitCleanCase()
		_, err := s.service.Apply(s.ctx, cas.ID, ActionApprove)
		var coded *domainerrors.Error
		s.Require().ErrorAs(err, &coded)
		s.Equal(domainerrors.CodeInvalidTransition, coded.Code)
	})

	s.Run("unknown action is a bad request", func() {
		cas := s.submitCleanCase()
		_, err := s.service.Apply(s.ctx, cas.ID, Action("escalate"))
		var coded *domainerrors.Error
		s.Require().ErrorAs(err, &coded)
		s.Equal(domainerrors.CodeBadRequest, coded.Code)
	})

	s.Run("unknown case is not found", func() {
		_, err := s.service.Execute(s.ctx, "missing", domain.StageKYCInProgress)
		var coded *domainerrors.Error
		s.Require().ErrorAs(err, &coded)
		s.Equal(domainerrors.CodeNotFound, coded.Code)
	})
}

func (s *StageServiceSuite) TestFullPipeline() {
	cas := s.submitCleanCase()

	_, err := s.service.Apply(s.ctx, cas.ID, ActionConfirmDocuments)
	s.Require().NoError(err)

	kyc, err := s.service.Execute(s.ctx, cas.ID, domain.StageKYCInProgress)
	s.Require().NoError(err)
	s.Equal(domain.StageKYCComplete, kyc.Case.Stage)
	s.NotEmpty(kyc.RunID)
	s.Equal(7, kyc.Composite.Checks, "all KYC checks contribute")
	s.Equal(domain.RiskLow, kyc.Case.RiskLevel, "clean case rates LOW after KYC")

	aml, err := s.service.Execute(s.ctx, cas.ID, domain.StageAMLInProgress)
	s.Require().NoError(err)
	s.Equal(domain.StageAMLComplete, aml.Case.Stage)
	s.Equal(12, aml.Composite.Checks, "aggregation accumulates both stages")

	projection, err := s.service.Apply(s.ctx, cas.ID, ActionApprove)
	s.Require().NoError(err)
	s.Equal(domain.StageApproved, projection.Stage)

	// submit + confirm + (start + 7 checks + complete) + (start + 5 checks + complete) + approve
	s.Equal(19, s.auditCount(cas.ID))
}

func (s *StageServiceSuite) TestIdempotentRetry() {
	cas := s.submitCleanCase()
	_, err := s.service.Apply(s.ctx, cas.ID, ActionConfirmDocuments)
	s.Require().NoError(err)

	first, err := s.service.Execute(s.ctx, cas.ID, domain.StageKYCInProgress)
	s.Require().NoError(err)
	checkEntries := s.checkEntriesByRun(cas.ID)
	s.Len(checkEntries[first.RunID], 7)

	second, err := s.service.Execute(s.ctx, cas.ID, domain.StageKYCInProgress)
	s.Require().NoError(err)
	s.NotEqual(first.RunID, second.RunID, "retry gets a fresh run ID")

	checkEntries = s.checkEntriesByRun(cas.ID)
	s.Len(checkEntries[first.RunID], 7, "prior run's entries are preserved")
	s.Len(checkEntries[second.RunID], 7)

	reloaded, err := s.service.Get(s.ctx, cas.ID)
	s.Require().NoError(err)
	s.Equal(second.Composite.Level, reloaded.RiskLevel, "risk reflects the latest run only")
	s.Equal(7, second.Composite.Checks, "retry does not double-count the stage")
}

func (s *StageServiceSuite) TestExecutionGuard() {
	cas := s.submitCleanCase()
	_, err := s.service.Apply(s.ctx, cas.ID, ActionConfirmDocuments)
	s.Require().NoError(err)

	s.Require().NoError(s.service.acquire(cas.ID))
	defer s.service.release(cas.ID)

	s.Run("a held case refuses a second acquisition", func() {
		s.Require().ErrorIs(s.service.acquire(cas.ID), sentinel.ErrRunInFlight)
	})

	s.Run("execute surfaces the held case as a conflict", func() {
		_, err := s.service.Execute(s.ctx, cas.ID, domain.StageKYCInProgress)
		var coded *domainerrors.Error
		s.Require().ErrorAs(err, &coded)
		s.Equal(domainerrors.CodeConflict, coded.Code)
	})

	s.Run("release frees the case for execution", func() {
		s.service.release(cas.ID)
		outcome, err := s.service.Execute(s.ctx, cas.ID, domain.StageKYCInProgress)
		s.Require().NoError(err)
		s.Equal(domain.StageKYCComplete, outcome.Case.Stage)
	})
}

func (s *StageServiceSuite) TestSanctionedCase() {
	cas, err := s.service.Submit(s.ctx, &domain.Case{
		LegalName:    "Crimson Star Trading",
		Jurisdiction: "Panama",
	})
	s.Require().NoError(err)
	_, err = s.service.Apply(s.ctx, cas.ID, ActionConfirmDocuments)
	s.Require().NoError(err)

	outcome, err := s.service.Execute(s.ctx, cas.ID, domain.StageKYCInProgress)
	s.Require().NoError(err)
	s.True(outcome.Case.RiskLevel.AtLeast(domain.RiskHigh), "sanctions hit dominates the composite")
}

func (s *StageServiceSuite) TestEmptyCheckSet() {
	// A stage with no registered checks must read as MEDIUM, never LOW.
	s.caseStore = cases.NewMemoryStore()
	s.auditStore = audit.NewMemoryStore()
	aggregator, err := risk.NewAggregator(risk.DefaultWeights())
	s.Require().NoError(err)
	runner := check.NewRunner(check.NewRegistry(), nil, nil, nil)
	s.service = NewService(s.caseStore, audit.NewPublisher(s.auditStore), runner, aggregator, nil, nil, nil)

	cas := s.submitCleanCase()
	_, err = s.service.Apply(s.ctx, cas.ID, ActionConfirmDocuments)
	s.Require().NoError(err)

	outcome, err := s.service.Execute(s.ctx, cas.ID, domain.StageKYCInProgress)
	s.Require().NoError(err)
	s.Equal(domain.RiskMedium, outcome.Case.RiskLevel)
	s.Contains(outcome.Composite.Flags, "no checks executed")
}

func (s *StageServiceSuite) checkEntriesByRun(caseID string) map[string][]domain.AuditEntry {
	entries, err := s.auditStore.ListByCase(s.ctx, caseID)
	s.Require().NoError(err)

	out := make(map[string][]domain.AuditEntry)
	for _, e := range entries {
		if e.CheckName != "" {
			out[e.RunID] = append(out[e.RunID], e)
		}
	}
	return out
}
