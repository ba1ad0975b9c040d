package kyc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vetra/internal/domain"
	"vetra/internal/reference"
	"vetra/internal/screening"
	"vetra/pkg/platform/sentinel"
)

// IdentityCheck cross-verifies the declared identity against the entity
// registry. Lookup cascades from exact LEI to a fuzzy name-token fallback;
// once a record is found the declared EIN and DBA name are cross-checked
// against it. An EIN conflict outranks a simple name mismatch: a wrong tax ID
// on an otherwise located record reads as fraud, not sloppiness.
type IdentityCheck struct {
	store reference.Store
}

func NewIdentityCheck(store reference.Store) *IdentityCheck {
	return &IdentityCheck{store: store}
}

func (c *IdentityCheck) Name() string { return "identity_verify" }

func (c *IdentityCheck) Run(ctx context.Context, cas domain.Case) (domain.CheckResult, error) {
	record, method, err := c.locate(ctx, cas)
	if err != nil {
		return domain.CheckResult{}, err
	}

	result := domain.CheckResult{
		CheckName: c.Name(),
		Output:    map[string]any{"match_method": method},
	}

	if record == nil {
		result.RiskLevel = domain.RiskHigh
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"registry record not found"}
		result.Summary = "no registry record located by LEI or name; identity unverified"
		return result, nil
	}
	result.Output["registry_lei"] = record.LEICode
	result.Output["registry_legal_name"] = record.LegalName

	nameMatch := namesCorrespond(cas.LegalName, record.LegalName)
	einConflict := einsConflict(cas.TaxID, record.EIN)
	dbaConflict := dbasConflict(cas.DBAName, record.DBAName)
	result.Output["name_match"] = nameMatch
	result.Output["ein_conflict"] = einConflict
	result.Output["dba_conflict"] = dbaConflict

	switch {
	case einConflict:
		result.RiskLevel = domain.RiskHigh
		result.Recommendation = domain.RecommendReject
		result.Flags = []string{fmt.Sprintf("declared EIN conflicts with registry record for %s", record.LegalName)}
		result.Summary = "registry record located but the declared tax ID contradicts it"
	case !nameMatch:
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{fmt.Sprintf("declared name %q does not correspond to registry name %q", cas.LegalName, record.LegalName)}
		result.Summary = "registry record located but the declared name does not correspond"
	case dbaConflict:
		result.RiskLevel = domain.RiskLow
		result.Recommendation = domain.RecommendPass
		result.Flags = []string{"doing-business-as name differs from registry"}
		result.Summary = "identity verified; DBA variation noted"
	default:
		result.RiskLevel = domain.RiskLow
		result.Recommendation = domain.RecommendPass
		result.Summary = "identity verified against registry"
	}
	return result, nil
}

// locate resolves the registry record: exact LEI first, then the first
// surviving token of the declared name. Returns a nil record when neither
// path finds one.
func (c *IdentityCheck) locate(ctx context.Context, cas domain.Case) (*domain.RegistryEntry, string, error) {
	if cas.LEI != "" {
		record, err := c.store.RegistryByLEI(ctx, cas.LEI)
		if err == nil {
			return record, "lei", nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", err
		}
	}

	tokens := screening.Tokenize(cas.LegalName)
	if len(tokens) == 0 {
		return nil, "none", nil
	}
	record, err := c.store.RegistryByNameToken(ctx, tokens[0])
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, "none", nil
	}
	if err != nil {
		return nil, "", err
	}
	return record, "name_token", nil
}

// namesCorrespond applies bidirectional case-insensitive containment.
func namesCorrespond(declared, registry string) bool {
	a := strings.ToLower(strings.TrimSpace(declared))
	b := strings.ToLower(strings.TrimSpace(registry))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// einsConflict compares tax IDs with separators stripped. Absent values on
// either side are not a conflict.
func einsConflict(declared, registry string) bool {
	a := normalizeEIN(declared)
	b := normalizeEIN(registry)
	return a != "" && b != "" && a != b
}

func normalizeEIN(ein string) string {
	var sb strings.Builder
	for _, r := range ein {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			sb.WriteRune(r)
		}
	}
	return strings.ToUpper(sb.String())
}

// dbasConflict mirrors namesCorrespond for the DBA pair; both sides must be
// present to conflict.
func dbasConflict(declared, registry string) bool {
	a := strings.ToLower(strings.TrimSpace(declared))
	b := strings.ToLower(strings.TrimSpace(registry))
	if a == "" || b == "" {
		return false
	}
	return !strings.Contains(a, b) && !strings.Contains(b, a)
}
