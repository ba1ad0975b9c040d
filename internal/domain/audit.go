package domain

import "time"

// ActorRuleBased attributes an audit entry to the deterministic check engine
// rather than an external reasoning agent or a human operator.
const ActorRuleBased = "rule-based"

// AuditEntry is one append-only row of the case evidence trail: either a check
// execution (RunID + CheckName set) or a stage transition. Entries are never
// updated or deleted and are totally ordered by CreatedAt per case.
type AuditEntry struct {
	ID             string         `json:"id"`
	RunID          string         `json:"run_id"`
	CaseID         string         `json:"case_id"`
	Stage          int            `json:"stage"`
	CheckName      string         `json:"check_name"`
	InputSnapshot  map[string]any `json:"input_snapshot"`
	Output         map[string]any `json:"output"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Recommendation Recommendation `json:"recommendation"`
	Flags          []string       `json:"flags"`
	Summary        string         `json:"summary"`
	Actor          string         `json:"actor"`
	Duration       time.Duration  `json:"duration_ms"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Result reconstructs the CheckResult recorded in the entry. The audit trail
// is the system of record for check results, so aggregation re-reads them
// from here rather than keeping a second store.
func (e AuditEntry) Result() CheckResult {
	return CheckResult{
		CheckName:      e.CheckName,
		RiskLevel:      e.RiskLevel,
		Recommendation: e.Recommendation,
		Flags:          e.Flags,
		Summary:        e.Summary,
		Output:         e.Output,
	}
}
