package aml

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vetra/internal/domain"
)

// Monthly volume bands in ascending order. Declared bands are normalized
// before ranking so "$1M - $10M" and "1m-10m" read the same.
const (
	bandUnder100K = iota
	band100KTo1M
	band1MTo10M
	bandOver10M
)

var volumeBands = map[string]int{
	"under100k": bandUnder100K,
	"0-100k":    bandUnder100K,
	"<100k":     bandUnder100K,
	"100k-1m":   band100KTo1M,
	"1m-10m":    band1MTo10M,
	"10m+":      bandOver10M,
	">10m":      bandOver10M,
	"over10m":   bandOver10M,
}

// newEntityAge is the incorporation age below which large declared volume is
// implausible.
const newEntityAge = 12 * 30 * 24 * time.Hour

// VolumeCheck rates the plausibility of the declared monthly volume against
// the entity's age and type.
type VolumeCheck struct {
	now func() time.Time
}

func NewVolumeCheck() *VolumeCheck {
	return &VolumeCheck{now: time.Now}
}

func (c *VolumeCheck) Name() string { return "volume_check" }

func (c *VolumeCheck) Run(_ context.Context, cas domain.Case) (domain.CheckResult, error) {
	result := domain.CheckResult{
		CheckName:      c.Name(),
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
		Summary:        "declared volume plausible for entity age and type",
		Output:         map[string]any{"expected_volume": cas.ExpectedVolume},
	}

	band, known := volumeBands[normalizeBand(cas.ExpectedVolume)]
	if !known {
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{fmt.Sprintf("expected volume %q is not a recognized band", cas.ExpectedVolume)}
		result.Summary = "declared volume band unrecognized"
		return result, nil
	}
	result.Output["band"] = band

	entityAge := c.now().Sub(cas.IncorporationDate)
	result.Output["entity_age_days"] = int(entityAge.Hours() / 24)

	switch {
	case entityAge < newEntityAge && band >= band1MTo10M:
		result.RiskLevel = domain.RiskHigh
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{"entity incorporated under 12 months ago declaring over $1M monthly"}
		result.Summary = "large declared volume implausible for a newly incorporated entity"
	case band == bandOver10M && isGenericEntityType(cas.EntityType):
		result.RiskLevel = domain.RiskMedium
		result.Recommendation = domain.RecommendFlag
		result.Flags = []string{fmt.Sprintf("entity type %q declaring over $10M monthly", cas.EntityType)}
		result.Summary = "very large declared volume for a generic entity type"
	}
	return result, nil
}

func normalizeBand(band string) string {
	replacer := strings.NewReplacer("$", "", ",", "", " ", "", "usd", "")
	return replacer.Replace(strings.ToLower(band))
}

// isGenericEntityType reports entity types with no regulated-volume
// expectation.
func isGenericEntityType(entityType string) bool {
	switch strings.ToLower(strings.TrimSpace(entityType)) {
	case "corporate", "other", "":
		return true
	}
	return false
}
