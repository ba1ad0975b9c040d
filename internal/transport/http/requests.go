package httptransport

import (
	"time"

	"vetra/internal/domain"
	domainerrors "vetra/pkg/domain-errors"
)

// SubmitCaseRequest is the intake payload for a new onboarding case.
type SubmitCaseRequest struct {
	LegalName          string   `json:"legal_name"`
	RegistrationNumber string   `json:"registration_number"`
	TaxID              string   `json:"tax_id"`
	LEI                string   `json:"lei"`
	DBAName            string   `json:"dba_name"`
	Jurisdiction       string   `json:"jurisdiction"`
	Website            string   `json:"website"`
	Email              string   `json:"email"`
	SourceOfFunds      string   `json:"source_of_funds"`
	ExpectedVolume     string   `json:"expected_volume"`
	IncorporationDate  string   `json:"incorporation_date"`
	EntityType         string   `json:"entity_type"`
	CountriesOperation []string `json:"countries_operation"`
	PEPDeclaration     bool     `json:"pep_declaration"`

	Persons       []PersonPayload      `json:"persons"`
	Questionnaire QuestionnairePayload `json:"questionnaire"`
}

// PersonPayload is one declared director or UBO.
type PersonPayload struct {
	FullName     string  `json:"full_name"`
	Role         string  `json:"role"`
	Residency    string  `json:"residency"`
	IsPEP        bool    `json:"is_pep"`
	OwnershipPct float64 `json:"ownership_pct"`
}

// QuestionnairePayload carries the risk-relevant intake declarations.
type QuestionnairePayload struct {
	AMLProgramConfirmed   bool   `json:"aml_program_confirmed"`
	AMLProgramDescription string `json:"aml_program_description"`
	SanctionsExposure     bool   `json:"sanctions_exposure"`
	AdverseMediaConsent   bool   `json:"adverse_media_consent"`
	CorrespondentBank     string `json:"correspondent_bank"`
	BankName              string `json:"bank_name"`
	RoutingNumber         string `json:"routing_number"`
	AccountNumber         string `json:"account_number"`
	MCCCode               string `json:"mcc_code"`
}

// ToDomain validates the payload and builds the domain case.
func (r SubmitCaseRequest) ToDomain() (*domain.Case, error) {
	var incorporated time.Time
	if r.IncorporationDate != "" {
		parsed, err := time.Parse("2006-01-02", r.IncorporationDate)
		if err != nil {
			return nil, domainerrors.Newf(domainerrors.CodeBadRequest, "incorporation_date %q is not YYYY-MM-DD", r.IncorporationDate)
		}
		incorporated = parsed
	}

	persons := make([]domain.Person, 0, len(r.Persons))
	for _, p := range r.Persons {
		role := domain.PersonRole(p.Role)
		if role != domain.RoleDirector && role != domain.RoleUBO {
			return nil, domainerrors.Newf(domainerrors.CodeBadRequest, "person role %q must be DIRECTOR or UBO", p.Role)
		}
		persons = append(persons, domain.Person{
			FullName:     p.FullName,
			Role:         role,
			Residency:    p.Residency,
			IsPEP:        p.IsPEP,
			OwnershipPct: p.OwnershipPct,
		})
	}

	return &domain.Case{
		LegalName:          r.LegalName,
		RegistrationNumber: r.RegistrationNumber,
		TaxID:              r.TaxID,
		LEI:                r.LEI,
		DBAName:            r.DBAName,
		Jurisdiction:       r.Jurisdiction,
		Website:            r.Website,
		Email:              r.Email,
		SourceOfFunds:      r.SourceOfFunds,
		ExpectedVolume:     r.ExpectedVolume,
		IncorporationDate:  incorporated,
		EntityType:         r.EntityType,
		CountriesOperation: r.CountriesOperation,
		PEPDeclaration:     r.PEPDeclaration,
		Persons:            persons,
		Questionnaire: domain.Questionnaire{
			AMLProgramConfirmed:   r.Questionnaire.AMLProgramConfirmed,
			AMLProgramDescription: r.Questionnaire.AMLProgramDescription,
			SanctionsExposure:     r.Questionnaire.SanctionsExposure,
			AdverseMediaConsent:   r.Questionnaire.AdverseMediaConsent,
			CorrespondentBank:     r.Questionnaire.CorrespondentBank,
			BankName:              r.Questionnaire.BankName,
			RoutingNumber:         r.Questionnaire.RoutingNumber,
			AccountNumber:         r.Questionnaire.AccountNumber,
			MCCCode:               r.Questionnaire.MCCCode,
		},
	}, nil
}

// ActionRequest is an operator decision payload.
type ActionRequest struct {
	Action string `json:"action"`
}

// CaseResponse is the external view of a case.
type CaseResponse struct {
	ID           string           `json:"id"`
	TrackingCode string           `json:"tracking_code"`
	LegalName    string           `json:"legal_name"`
	Jurisdiction string           `json:"jurisdiction"`
	Stage        domain.Stage     `json:"stage"`
	RiskLevel    domain.RiskLevel `json:"risk_level"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// FromCase builds the external case view.
func FromCase(cas *domain.Case) CaseResponse {
	return CaseResponse{
		ID:           cas.ID,
		TrackingCode: cas.TrackingCode,
		LegalName:    cas.LegalName,
		Jurisdiction: cas.Jurisdiction,
		Stage:        cas.Stage,
		RiskLevel:    cas.RiskLevel,
		CreatedAt:    cas.CreatedAt,
		UpdatedAt:    cas.UpdatedAt,
	}
}
