// Package risk computes the weighted composite rating for a case from its
// individual check results.
package risk

import (
	"fmt"
	"math"
	"sort"

	"vetra/internal/domain"
)

// Weights maps check names to their share of the composite score. Checks not
// listed fall back to DefaultWeight. Weighting is relative: the aggregate
// normalizes by the sum of weights actually present, so a partial check set
// still produces a score on the same 0-100 scale.
type Weights struct {
	ByCheck map[string]float64
	Default float64
}

// DefaultWeights is the production weight table. Sanctions exposure dominates;
// the long tail of structural checks shares the remainder.
func DefaultWeights() Weights {
	return Weights{
		ByCheck: map[string]float64{
			"sanctions_check":           0.35,
			"ubo_sanctions_check":       0.15,
			"director_sanctions_check":  0.10,
			"pep_check":                 0.10,
			"country_risk":              0.10,
			"aml_questionnaire_score":   0.10,
			"registration_format_check": 0.05,
			"website_review":            0.05,
		},
		Default: 0.05,
	}
}

// severity maps each risk level to its numeric contribution.
var severity = map[domain.RiskLevel]float64{
	domain.RiskLow:      0,
	domain.RiskMedium:   50,
	domain.RiskHigh:     75,
	domain.RiskCritical: 100,
}

// Band thresholds for the composite score.
const (
	criticalFloor = 76
	highFloor     = 51
	mediumFloor   = 26
)

// Composite is the aggregated rating for one case.
type Composite struct {
	Score  float64          `json:"score"`
	Level  domain.RiskLevel `json:"level"`
	Checks int              `json:"checks"`
	Flags  []string         `json:"flags"`
}

// Aggregator folds check results into a composite score and level.
type Aggregator struct {
	weights Weights
}

// NewAggregator validates the weight table and returns an aggregator. The
// configured weights must cover the unit interval: each weight in (0, 1] and
// the table summing to 1 within rounding tolerance.
func NewAggregator(weights Weights) (*Aggregator, error) {
	if weights.Default <= 0 || weights.Default > 1 {
		return nil, fmt.Errorf("default weight %v out of range (0, 1]", weights.Default)
	}
	var sum float64
	for name, w := range weights.ByCheck {
		if w <= 0 || w > 1 {
			return nil, fmt.Errorf("weight for %s: %v out of range (0, 1]", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("weight table sums to %v, want 1.0", sum)
	}
	return &Aggregator{weights: weights}, nil
}

// Weight returns the configured weight for a check name.
func (a *Aggregator) Weight(name string) float64 {
	if w, ok := a.weights.ByCheck[name]; ok {
		return w
	}
	return a.weights.Default
}

// Aggregate computes the weighted-average score of the results and maps it to
// a level. The order of results does not matter. With no results there is
// nothing to average, so the composite defaults to MEDIUM with an explanatory
// flag rather than reading as clean.
func (a *Aggregator) Aggregate(results []domain.CheckResult) Composite {
	if len(results) == 0 {
		return Composite{
			Score:  severity[domain.RiskMedium],
			Level:  domain.RiskMedium,
			Checks: 0,
			Flags:  []string{"no checks executed"},
		}
	}

	var weighted, totalWeight float64
	var flags []string
	for _, r := range results {
		w := a.Weight(r.CheckName)
		weighted += severity[r.RiskLevel] * w
		totalWeight += w
		if !r.RiskLevel.Valid() {
			flags = append(flags, fmt.Sprintf("%s: unknown risk level %q scored as LOW", r.CheckName, r.RiskLevel))
		}
	}
	sort.Strings(flags)

	score := weighted / totalWeight
	return Composite{
		Score:  math.Round(score*100) / 100,
		Level:  Band(score),
		Checks: len(results),
		Flags:  flags,
	}
}

// Band maps a composite score to its risk level.
func Band(score float64) domain.RiskLevel {
	switch {
	case score >= criticalFloor:
		return domain.RiskCritical
	case score >= highFloor:
		return domain.RiskHigh
	case score >= mediumFloor:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
