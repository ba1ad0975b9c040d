package check

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vetra/internal/check/metrics"
	"vetra/internal/domain"
)

// checkTimeout bounds one stage execution's evidence gathering.
const checkTimeout = 30 * time.Second

// Corroborator is an optional external reasoning collaborator asked to
// second-opinion a rule-based result. Failures and malformed replies degrade
// to the rule-based result alone.
type Corroborator interface {
	Name() string
	Corroborate(ctx context.Context, cas domain.Case, result domain.CheckResult) (domain.CheckResult, error)
}

// Execution is the outcome of running one stage's check set: the results for
// aggregation plus the audit entries to persist. The caller owns persistence
// so that entries and the stage advance commit atomically.
type Execution struct {
	RunID   string
	Stage   int
	Results []domain.CheckResult
	Entries []domain.AuditEntry
}

// Runner executes the registered checks for a stage. Checks within a stage
// have no ordering dependency and run in parallel; results are collected
// positionally so the execution record stays deterministic.
type Runner struct {
	registry     *Registry
	corroborator Corroborator
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewRunner builds a runner. The corroborator and metrics may be nil.
func NewRunner(registry *Registry, corroborator Corroborator, m *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		registry:     registry,
		corroborator: corroborator,
		metrics:      m,
		logger:       logger,
	}
}

// Run executes the check set for the given stage number against the case and
// returns one result and one audit entry per registered check. A failed
// evidence lookup yields the fail-soft result; Run itself only errs on
// context cancellation.
func (r *Runner) Run(ctx context.Context, cas domain.Case, stage int) (Execution, error) {
	exec := Execution{
		RunID: uuid.NewString(),
		Stage: stage,
	}
	checks := r.registry.ForStage(stage)
	if len(checks) == 0 {
		return exec, nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	results := make([]domain.CheckResult, len(checks))
	durations := make([]time.Duration, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chk := range checks {
		g.Go(func() error {
			began := time.Now()
			res, err := chk.Run(gctx, cas)
			durations[i] = time.Since(began)
			if err != nil {
				if r.logger != nil {
					r.logger.WarnContext(gctx, "check evidence unavailable",
						"check", chk.Name(),
						"case_id", cas.ID,
						"error", err,
					)
				}
				res = Unavailable(chk.Name(), err)
			}
			res.CheckName = chk.Name()
			results[i] = res
			return nil
		})
	}
	// Checks fail soft, so Wait only reports context cancellation.
	if err := g.Wait(); err != nil {
		return exec, err
	}
	r.metrics.ObserveRunLatency(time.Since(start))

	snapshot := inputSnapshot(cas)
	now := time.Now().UTC()
	for i, res := range results {
		actor := domain.ActorRuleBased
		if r.corroborator != nil {
			actor = r.corroborate(ctx, cas, &res, actor)
		}
		r.metrics.ObserveCheckLatency(res.CheckName, durations[i])
		r.metrics.IncrementOutcome(res.CheckName, string(res.RiskLevel))

		exec.Results = append(exec.Results, res)
		exec.Entries = append(exec.Entries, domain.AuditEntry{
			ID:             uuid.NewString(),
			RunID:          exec.RunID,
			CaseID:         cas.ID,
			Stage:          stage,
			CheckName:      res.CheckName,
			InputSnapshot:  snapshot,
			Output:         res.Output,
			RiskLevel:      res.RiskLevel,
			Recommendation: res.Recommendation,
			Flags:          res.Flags,
			Summary:        res.Summary,
			Actor:          actor,
			Duration:       durations[i],
			CreatedAt:      now,
		})
	}
	return exec, nil
}

// corroborate asks the external reasoner to review a rule-based result and
// escalates when it reports higher risk. The rule-based result is never
// lowered. Returns the actor to attribute the entry to.
func (r *Runner) corroborate(ctx context.Context, cas domain.Case, res *domain.CheckResult, actor string) string {
	reviewed, err := r.corroborator.Corroborate(ctx, cas, *res)
	if err != nil {
		if r.logger != nil {
			r.logger.DebugContext(ctx, "corroboration unavailable, keeping rule-based result",
				"check", res.CheckName,
				"case_id", cas.ID,
				"error", err,
			)
		}
		return actor
	}
	if !reviewed.RiskLevel.Valid() || !reviewed.RiskLevel.AtLeast(res.RiskLevel) || reviewed.RiskLevel == res.RiskLevel {
		return actor
	}

	res.RiskLevel = reviewed.RiskLevel
	if stricter(reviewed.Recommendation, res.Recommendation) {
		res.Recommendation = reviewed.Recommendation
	}
	res.Flags = append(res.Flags, "escalated by "+r.corroborator.Name())
	if reviewed.Summary != "" {
		res.Summary = reviewed.Summary
	}
	return r.corroborator.Name()
}

var recommendationOrder = map[domain.Recommendation]int{
	domain.RecommendPass:   0,
	domain.RecommendFlag:   1,
	domain.RecommendReject: 2,
}

func stricter(a, b domain.Recommendation) bool {
	return recommendationOrder[a] > recommendationOrder[b]
}

// inputSnapshot freezes the case fields the checks read, recorded verbatim on
// every entry of the run.
func inputSnapshot(cas domain.Case) map[string]any {
	persons := make([]map[string]any, 0, len(cas.Persons))
	for _, p := range cas.Persons {
		persons = append(persons, map[string]any{
			"full_name": p.FullName,
			"role":      string(p.Role),
			"residency": p.Residency,
			"is_pep":    p.IsPEP,
		})
	}
	return map[string]any{
		"legal_name":          cas.LegalName,
		"registration_number": cas.RegistrationNumber,
		"tax_id":              cas.TaxID,
		"lei":                 cas.LEI,
		"dba_name":            cas.DBAName,
		"jurisdiction":        cas.Jurisdiction,
		"website":             cas.Website,
		"email":               cas.Email,
		"entity_type":         cas.EntityType,
		"expected_volume":     cas.ExpectedVolume,
		"source_of_funds":     cas.SourceOfFunds,
		"stage":               string(cas.Stage),
		"persons":             persons,
	}
}
