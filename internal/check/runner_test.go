package check

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"vetra/internal/domain"
)

type stubCheck struct {
	name   string
	result domain.CheckResult
	err    error
}

func (c stubCheck) Name() string { return c.name }

func (c stubCheck) Run(context.Context, domain.Case) (domain.CheckResult, error) {
	return c.result, c.err
}

type stubCorroborator struct {
	result domain.CheckResult
	err    error
}

func (c stubCorroborator) Name() string { return "reasoner" }

func (c stubCorroborator) Corroborate(context.Context, domain.Case, domain.CheckResult) (domain.CheckResult, error) {
	return c.result, c.err
}

type RunnerSuite struct {
	suite.Suite
	ctx context.Context
	cas domain.Case
}

func (s *RunnerSuite) SetupTest() {
	s.ctx = context.Background()
	s.cas = domain.Case{ID: "case-1", LegalName: "Bluewater Robotics", Stage: domain.StageKYCInProgress}
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) registryWith(checks ...Check) *Registry {
	r := NewRegistry()
	for _, c := range checks {
		r.Register(StageKYC, c)
	}
	return r
}

func (s *RunnerSuite) TestRun() {
	s.Run("emits one result and one audit entry per check", func() {
		runner := NewRunner(s.registryWith(
			stubCheck{name: "a", result: domain.CheckResult{RiskLevel: domain.RiskLow, Recommendation: domain.RecommendPass}},
			stubCheck{name: "b", result: domain.CheckResult{RiskLevel: domain.RiskHigh, Recommendation: domain.RecommendFlag}},
		), nil, nil, nil)

		exec, err := runner.Run(s.ctx, s.cas, StageKYC)
		s.Require().NoError(err)
		s.NotEmpty(exec.RunID)
		s.Len(exec.Results, 2)
		s.Len(exec.Entries, 2)
		for _, entry := range exec.Entries {
			s.Equal(exec.RunID, entry.RunID)
			s.Equal("case-1", entry.CaseID)
			s.Equal(StageKYC, entry.Stage)
			s.Equal(domain.ActorRuleBased, entry.Actor)
			s.Equal("Bluewater Robotics", entry.InputSnapshot["legal_name"])
		}
	})

	s.Run("failed evidence lookup degrades to HIGH flag, never aborts the stage", func() {
		runner := NewRunner(s.registryWith(
			stubCheck{name: "broken", err: errors.New("registry timeout")},
			stubCheck{name: "fine", result: domain.CheckResult{RiskLevel: domain.RiskLow, Recommendation: domain.RecommendPass}},
		), nil, nil, nil)

		exec, err := runner.Run(s.ctx, s.cas, StageKYC)
		s.Require().NoError(err)
		s.Require().Len(exec.Entries, 2)

		degraded := exec.Results[0]
		s.Equal("broken", degraded.CheckName)
		s.Equal(domain.RiskHigh, degraded.RiskLevel)
		s.Equal(domain.RecommendFlag, degraded.Recommendation)
		s.Require().NotEmpty(degraded.Flags)
		s.Contains(degraded.Flags[0], "evidence unavailable")
	})

	s.Run("two runs have distinct run IDs", func() {
		runner := NewRunner(s.registryWith(
			stubCheck{name: "a", result: domain.CheckResult{RiskLevel: domain.RiskLow}},
		), nil, nil, nil)

		first, err := runner.Run(s.ctx, s.cas, StageKYC)
		s.Require().NoError(err)
		second, err := runner.Run(s.ctx, s.cas, StageKYC)
		s.Require().NoError(err)
		s.NotEqual(first.RunID, second.RunID)
	})

	s.Run("stage with no registered checks yields an empty execution", func() {
		runner := NewRunner(NewRegistry(), nil, nil, nil)
		exec, err := runner.Run(s.ctx, s.cas, StageAML)
		s.Require().NoError(err)
		s.Empty(exec.Results)
		s.Empty(exec.Entries)
	})
}

func (s *RunnerSuite) TestCorroboration() {
	base := stubCheck{name: "website_review", result: domain.CheckResult{
		RiskLevel:      domain.RiskLow,
		Recommendation: domain.RecommendPass,
	}}

	s.Run("higher reasoner rating escalates and re-attributes the entry", func() {
		runner := NewRunner(s.registryWith(base), stubCorroborator{result: domain.CheckResult{
			RiskLevel:      domain.RiskHigh,
			Recommendation: domain.RecommendFlag,
			Summary:        "site content inconsistent with declared business",
		}}, nil, nil)

		exec, err := runner.Run(s.ctx, s.cas, StageKYC)
		s.Require().NoError(err)
		s.Require().Len(exec.Results, 1)
		s.Equal(domain.RiskHigh, exec.Results[0].RiskLevel)
		s.Equal(domain.RecommendFlag, exec.Results[0].Recommendation)
		s.Contains(exec.Results[0].Flags, "escalated by reasoner")
		s.Equal("reasoner", exec.Entries[0].Actor)
	})

	s.Run("lower reasoner rating never downgrades the rule-based result", func() {
		high := stubCheck{name: "a", result: domain.CheckResult{
			RiskLevel:      domain.RiskHigh,
			Recommendation: domain.RecommendFlag,
		}}
		runner := NewRunner(s.registryWith(high), stubCorroborator{result: domain.CheckResult{
			RiskLevel: domain.RiskLow,
		}}, nil, nil)

		exec, err := runner.Run(s.ctx, s.cas, StageKYC)
		s.Require().NoError(err)
		s.Equal(domain.RiskHigh, exec.Results[0].RiskLevel)
		s.Equal(domain.ActorRuleBased, exec.Entries[0].Actor)
	})

	s.Run("reasoner failure degrades to the rule-based result", func() {
		runner := NewRunner(s.registryWith(base), stubCorroborator{err: errors.New("reasoner unreachable")}, nil, nil)

		exec, err := runner.Run(s.ctx, s.cas, StageKYC)
		s.Require().NoError(err)
		s.Equal(domain.RiskLow, exec.Results[0].RiskLevel)
		s.Equal(domain.ActorRuleBased, exec.Entries[0].Actor)
	})
}
