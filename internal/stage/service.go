package stage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vetra/internal/audit"
	"vetra/internal/cases"
	"vetra/internal/check"
	"vetra/internal/domain"
	"vetra/internal/risk"
	"vetra/internal/stage/metrics"
	domainerrors "vetra/pkg/domain-errors"
	"vetra/pkg/platform/sentinel"
	"vetra/pkg/platform/tx"
	"vetra/pkg/requestcontext"
)

// Action is an operator decision on a case.
type Action string

const (
	ActionConfirmDocuments Action = "confirm_documents"
	ActionApprove          Action = "approve"
	ActionReject           Action = "reject"
	ActionCancel           Action = "cancel"
	ActionClarify          Action = "clarify"
	ActionReopen           Action = "reopen"
)

// actionTargets maps operator actions to the stage they move the case to.
var actionTargets = map[Action]domain.Stage{
	ActionConfirmDocuments: domain.StageDocumentComplete,
	ActionApprove:          domain.StageApproved,
	ActionReject:           domain.StageRejected,
	ActionCancel:           domain.StageCancelled,
	ActionClarify:          domain.StageClarificationRequired,
	ActionReopen:           domain.StagePendingReview,
}

// executionTargets maps the check-bearing *_IN_PROGRESS stages to the stage
// they complete into.
var executionTargets = map[domain.Stage]domain.Stage{
	domain.StageKYCInProgress: domain.StageKYCComplete,
	domain.StageAMLInProgress: domain.StageAMLComplete,
}

// Outcome is what a completed stage execution hands back to the caller: the
// new stage and composite risk, plus the run that produced them.
type Outcome struct {
	Case      domain.Projection `json:"case"`
	RunID     string            `json:"run_id"`
	Composite risk.Composite    `json:"composite"`
}

// Service drives the case pipeline: intake, operator actions, and stage
// executions. Stage advancement and audit writes commit in one transaction so
// a crash mid-execution leaves the case resumable, never inconsistent.
type Service struct {
	cases      cases.Store
	audit      *audit.Publisher
	runner     *check.Runner
	aggregator *risk.Aggregator
	db         *sql.DB
	metrics    *metrics.Metrics
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService wires the stage service. db may be nil for memory-backed wiring;
// metrics may be nil.
func NewService(
	caseStore cases.Store,
	auditPublisher *audit.Publisher,
	runner *check.Runner,
	aggregator *risk.Aggregator,
	db *sql.DB,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		cases:      caseStore,
		audit:      auditPublisher,
		runner:     runner,
		aggregator: aggregator,
		db:         db,
		metrics:    m,
		logger:     logger,
		inFlight:   make(map[string]struct{}),
	}
}

// Submit creates a case in PENDING_REVIEW and records its intake on the
// trail.
func (s *Service) Submit(ctx context.Context, cas *domain.Case) (*domain.Case, error) {
	if strings.TrimSpace(cas.LegalName) == "" {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "legal name is required")
	}
	cas.Stage = domain.StagePendingReview

	err := tx.Within(ctx, s.db, func(ctx context.Context) error {
		if err := s.cases.Create(ctx, cas); err != nil {
			return fmt.Errorf("create case: %w", err)
		}
		return s.audit.Record(ctx, s.transitionEntry(ctx, cas.ID, "", domain.StagePendingReview, "case submitted"))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransition("", string(domain.StagePendingReview))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "case submitted",
			"case_id", cas.ID,
			"tracking_code", cas.TrackingCode,
		)
	}
	return cas, nil
}

// Get loads one case by ID or by tracking code; operators hold either.
func (s *Service) Get(ctx context.Context, id string) (*domain.Case, error) {
	var (
		cas *domain.Case
		err error
	)
	if strings.HasPrefix(id, "ONB-") {
		cas, err = s.cases.GetByTrackingCode(ctx, id)
	} else {
		cas, err = s.cases.Get(ctx, id)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "case not found")
	}
	return cas, err
}

// List returns the external projections of all cases.
func (s *Service) List(ctx context.Context) ([]domain.Projection, error) {
	return s.cases.List(ctx)
}

// Timeline returns the case's full evidence trail, oldest first.
func (s *Service) Timeline(ctx context.Context, caseID string) ([]domain.AuditEntry, error) {
	if _, err := s.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.audit.Timeline(ctx, caseID)
}

// Apply performs an operator action: a non-check transition validated against
// the machine and recorded on the trail.
func (s *Service) Apply(ctx context.Context, caseID string, action Action) (domain.Projection, error) {
	target, ok := actionTargets[action]
	if !ok {
		return domain.Projection{}, domainerrors.Newf(domainerrors.CodeBadRequest, "unknown action %q", action)
	}

	cas, err := s.Get(ctx, caseID)
	if err != nil {
		return domain.Projection{}, err
	}
	if err := ValidateTransition(cas.Stage, target); err != nil {
		s.metrics.IncrementInvalidTransition()
		return domain.Projection{}, err
	}

	err = tx.Within(ctx, s.db, func(ctx context.Context) error {
		if err := s.cases.UpdateStage(ctx, caseID, target, ""); err != nil {
			return fmt.Errorf("update stage: %w", err)
		}
		summary := fmt.Sprintf("operator action %s", action)
		return s.audit.Record(ctx, s.transitionEntry(ctx, caseID, cas.Stage, target, summary))
	})
	if err != nil {
		return domain.Projection{}, err
	}

	s.metrics.IncrementTransition(string(cas.Stage), string(target))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "operator action applied",
			"case_id", caseID,
			"action", string(action),
			"from", string(cas.Stage),
			"to", string(target),
		)
	}

	cas.Stage = target
	return cas.Project(), nil
}

// Execute runs the check set for the given *_IN_PROGRESS stage: it validates
// the transition, advances the case into the stage, runs the checks,
// aggregates the accumulated results, and commits the completion atomically
// with its evidence. Re-triggering the stage a case is already in resumes a
// crashed execution.
func (s *Service) Execute(ctx context.Context, caseID string, target domain.Stage) (Outcome, error) {
	completed, ok := executionTargets[target]
	if !ok {
		return Outcome{}, domainerrors.Newf(domainerrors.CodeBadRequest, "stage %s is not executable", target)
	}

	cas, err := s.Get(ctx, caseID)
	if err != nil {
		return Outcome{}, err
	}
	if err := ValidateTransition(cas.Stage, target); err != nil {
		s.metrics.IncrementInvalidTransition()
		return Outcome{}, err
	}

	if err := s.acquire(caseID); err != nil {
		return Outcome{}, domainerrors.New(domainerrors.CodeConflict, "a stage execution is already running for this case")
	}
	defer s.release(caseID)

	started := time.Now()

	// Commit the move into the in-progress stage first: a crash from here on
	// leaves the case re-triggerable for the same stage.
	summary := "stage execution started"
	if cas.Stage == target {
		summary = "stage execution resumed"
	}
	err = tx.Within(ctx, s.db, func(ctx context.Context) error {
		if err := s.cases.UpdateStage(ctx, caseID, target, ""); err != nil {
			return fmt.Errorf("update stage: %w", err)
		}
		return s.audit.Record(ctx, s.transitionEntry(ctx, caseID, cas.Stage, target, summary))
	})
	if err != nil {
		return Outcome{}, err
	}
	s.metrics.IncrementTransition(string(cas.Stage), string(target))

	snapshot := *cas
	snapshot.Stage = target
	exec, err := s.runner.Run(ctx, snapshot, target.Number())
	if err != nil {
		return Outcome{}, fmt.Errorf("run stage checks: %w", err)
	}

	composite, err := s.aggregate(ctx, caseID, exec)
	if err != nil {
		return Outcome{}, err
	}

	// Evidence and advancement commit together; neither survives without the
	// other.
	err = tx.Within(ctx, s.db, func(ctx context.Context) error {
		if err := s.audit.Record(ctx, exec.Entries...); err != nil {
			return fmt.Errorf("record check entries: %w", err)
		}
		completion := s.transitionEntry(ctx, caseID, target, completed,
			fmt.Sprintf("stage completed at composite %.2f (%s)", composite.Score, composite.Level))
		completion.RunID = exec.RunID
		completion.Stage = target.Number()
		completion.RiskLevel = composite.Level
		completion.Output = map[string]any{
			"composite_score": composite.Score,
			"checks":          composite.Checks,
			"flags":           composite.Flags,
		}
		if err := s.audit.Record(ctx, completion); err != nil {
			return fmt.Errorf("record completion entry: %w", err)
		}
		if err := s.cases.UpdateStage(ctx, caseID, completed, composite.Level); err != nil {
			return fmt.Errorf("advance stage: %w", err)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	s.metrics.IncrementTransition(string(target), string(completed))
	s.metrics.IncrementComposite(string(completed), string(composite.Level))
	s.metrics.ObserveExecutionLatency(time.Since(started))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "stage executed",
			"case_id", caseID,
			"stage", string(completed),
			"run_id", exec.RunID,
			"composite_score", composite.Score,
			"risk_level", string(composite.Level),
		)
	}

	return Outcome{
		Case: domain.Projection{
			ID:           cas.ID,
			TrackingCode: cas.TrackingCode,
			Stage:        completed,
			RiskLevel:    composite.Level,
		},
		RunID:     exec.RunID,
		Composite: composite,
	}, nil
}

// aggregate folds the new execution together with the latest prior run of
// every other stage. Retries supersede their earlier runs because only the
// latest run per stage contributes.
func (s *Service) aggregate(ctx context.Context, caseID string, exec check.Execution) (risk.Composite, error) {
	prior, err := s.audit.Timeline(ctx, caseID)
	if err != nil {
		return risk.Composite{}, fmt.Errorf("load audit trail: %w", err)
	}

	combined := append(prior, exec.Entries...)
	var results []domain.CheckResult
	for _, entries := range audit.LatestRunByStage(combined) {
		for _, e := range entries {
			results = append(results, e.Result())
		}
	}

	composite := s.aggregator.Aggregate(results)
	if partial(results) {
		composite.Flags = append(composite.Flags, "composite based on partial evidence")
	}
	return composite, nil
}

// partial reports whether any contributing result degraded for missing
// evidence.
func partial(results []domain.CheckResult) bool {
	for _, r := range results {
		for _, flag := range r.Flags {
			if strings.HasPrefix(flag, "evidence unavailable") {
				return true
			}
		}
	}
	return false
}

func (s *Service) transitionEntry(ctx context.Context, caseID string, from, to domain.Stage, summary string) domain.AuditEntry {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		actor = domain.ActorRuleBased
	}
	return domain.AuditEntry{
		CaseID:  caseID,
		Stage:   to.Number(),
		Summary: summary,
		Actor:   actor,
		Output: map[string]any{
			"from": string(from),
			"to":   string(to),
		},
	}
}

func (s *Service) acquire(caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.inFlight[caseID]; running {
		return sentinel.ErrRunInFlight
	}
	s.inFlight[caseID] = struct{}{}
	return nil
}

func (s *Service) release(caseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, caseID)
}
