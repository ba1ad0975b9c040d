package domain

import "time"

// Stage is the review phase a case is currently in. Stages advance
// monotonically except for the explicit terminal short-circuits and the
// clarification loop; the stage package owns the legal-transition table.
type Stage string

const (
	StagePendingReview         Stage = "PENDING_REVIEW"
	StageDocumentComplete      Stage = "DOCUMENT_COMPLETE"
	StageKYCInProgress         Stage = "KYC_IN_PROGRESS"
	StageKYCComplete           Stage = "KYC_COMPLETE"
	StageAMLInProgress         Stage = "AML_IN_PROGRESS"
	StageAMLComplete           Stage = "AML_COMPLETE"
	StageApproved              Stage = "APPROVED"
	StageRejected              Stage = "REJECTED"
	StageClarificationRequired Stage = "CLARIFICATION_REQUIRED"
	StageCancelled             Stage = "CANCELLED"
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StagePendingReview, StageDocumentComplete,
		StageKYCInProgress, StageKYCComplete,
		StageAMLInProgress, StageAMLComplete,
		StageApproved, StageRejected, StageClarificationRequired, StageCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are legal from this stage.
func (s Stage) Terminal() bool {
	switch s {
	case StageApproved, StageRejected, StageCancelled:
		return true
	}
	return false
}

// Number maps check-bearing stages to the stage column recorded on audit
// entries: 1 for KYC, 2 for AML, 0 for everything else.
func (s Stage) Number() int {
	switch s {
	case StageKYCInProgress, StageKYCComplete:
		return 1
	case StageAMLInProgress, StageAMLComplete:
		return 2
	}
	return 0
}

// PersonRole distinguishes the two screened personnel populations.
type PersonRole string

const (
	RoleDirector PersonRole = "DIRECTOR"
	RoleUBO      PersonRole = "UBO"
)

// Person is a director or ultimate beneficial owner attached to a case.
type Person struct {
	FullName     string
	Role         PersonRole
	Residency    string // jurisdiction of residence
	IsPEP        bool
	OwnershipPct float64 // only meaningful for UBOs
}

// Questionnaire holds the risk-relevant declarations collected at intake.
type Questionnaire struct {
	AMLProgramConfirmed   bool
	AMLProgramDescription string
	SanctionsExposure     bool
	AdverseMediaConsent   bool
	CorrespondentBank     string
	BankName              string
	RoutingNumber         string
	AccountNumber         string
	MCCCode               string
}

// Case is one institutional onboarding application under review. It is owned
// by the pipeline once created and mutated only through stage-gated
// transitions; cases are never deleted.
type Case struct {
	ID           string
	TrackingCode string

	LegalName          string
	RegistrationNumber string
	TaxID              string
	LEI                string
	DBAName            string
	Jurisdiction       string
	Website            string
	Email              string

	SourceOfFunds      string
	ExpectedVolume     string
	IncorporationDate  time.Time
	EntityType         string
	CountriesOperation []string
	PEPDeclaration     bool
	Questionnaire      Questionnaire

	Persons []Person

	Stage     Stage
	RiskLevel RiskLevel

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Directors returns the persons holding a director role.
func (c *Case) Directors() []Person {
	return c.personsByRole(RoleDirector)
}

// UBOs returns the persons holding a UBO role.
func (c *Case) UBOs() []Person {
	return c.personsByRole(RoleUBO)
}

func (c *Case) personsByRole(role PersonRole) []Person {
	var out []Person
	for _, p := range c.Persons {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// Projection is the minimal externally visible view of a case.
type Projection struct {
	ID           string    `json:"id"`
	TrackingCode string    `json:"tracking_code"`
	Stage        Stage     `json:"stage"`
	RiskLevel    RiskLevel `json:"risk_level"`
}

// Project returns the external projection of the case.
func (c *Case) Project() Projection {
	return Projection{
		ID:           c.ID,
		TrackingCode: c.TrackingCode,
		Stage:        c.Stage,
		RiskLevel:    c.RiskLevel,
	}
}
