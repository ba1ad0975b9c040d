package domain

// RiskLevel is the totally ordered risk scale shared by individual checks and
// the composite case rating.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// riskOrder defines LOW < MEDIUM < HIGH < CRITICAL.
var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the position of the level in the total order. Unknown levels
// rank below LOW so corrupt data can never escalate a case.
func (r RiskLevel) Rank() int {
	if rank, ok := riskOrder[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r is at or above other in the risk order.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Rank() >= other.Rank()
}

// MaxRisk returns the higher of two levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Valid reports whether the level is one of the four known values.
func (r RiskLevel) Valid() bool {
	_, ok := riskOrder[r]
	return ok
}

// Recommendation is the per-check disposition derived from its risk level.
type Recommendation string

const (
	RecommendPass   Recommendation = "PASS"
	RecommendFlag   Recommendation = "FLAG"
	RecommendReject Recommendation = "REJECT"
)
