package domain

// CheckResult is the immutable output of one check invocation, identified by
// (run ID, check name) once recorded.
type CheckResult struct {
	CheckName      string         `json:"check_name"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Recommendation Recommendation `json:"recommendation"`
	Flags          []string       `json:"flags"`
	Summary        string         `json:"summary"`
	Output         map[string]any `json:"output"`
}

// Escalate raises the result to at least the given level, appending the flag
// when the raise takes effect. Used for the insufficiently-specific-name and
// evidence-unavailable floors.
func (r *CheckResult) Escalate(min RiskLevel, flag string) {
	if r.RiskLevel.AtLeast(min) {
		return
	}
	r.RiskLevel = min
	if flag != "" {
		r.Flags = append(r.Flags, flag)
	}
}
