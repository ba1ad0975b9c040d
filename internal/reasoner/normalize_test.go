package reasoner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"vetra/internal/domain"
)

type NormalizeSuite struct {
	suite.Suite
}

func TestNormalizeSuite(t *testing.T) {
	suite.Run(t, new(NormalizeSuite))
}

func (s *NormalizeSuite) TestKeyVariants() {
	for _, key := range []string{"risk_level", "riskLevel", "RISK-LEVEL", "Risk Level"} {
		result, err := Normalize(map[string]any{key: "high"})
		s.Require().NoError(err, "key %q", key)
		s.Equal(domain.RiskHigh, result.RiskLevel, "key %q", key)
	}
}

func (s *NormalizeSuite) TestFields() {
	s.Run("full reply round-trips", func() {
		result, err := Normalize(map[string]any{
			"riskLevel":      "CRITICAL",
			"recommendation": "reject",
			"summary":        "shell company indicators",
			"flags":          []any{"no physical address", "registered agent mismatch"},
			"output":         map[string]any{"confidence": 0.92},
		})
		s.Require().NoError(err)
		s.Equal(domain.RiskCritical, result.RiskLevel)
		s.Equal(domain.RecommendReject, result.Recommendation)
		s.Equal([]string{"no physical address", "registered agent mismatch"}, result.Flags)
		s.Equal(0.92, result.Output["confidence"])
	})

	s.Run("missing risk level is rejected", func() {
		_, err := Normalize(map[string]any{"summary": "looks fine"})
		s.Require().Error(err)
	})

	s.Run("unrecognized risk level is rejected", func() {
		_, err := Normalize(map[string]any{"risk_level": "SEVERE"})
		s.Require().Error(err)
	})

	s.Run("non-list flags are rejected", func() {
		_, err := Normalize(map[string]any{"risk_level": "LOW", "flags": "oops"})
		s.Require().Error(err)
	})

	s.Run("unrecognized recommendation is rejected", func() {
		_, err := Normalize(map[string]any{"risk_level": "LOW", "recommendation": "MAYBE"})
		s.Require().Error(err)
	})
}

type ClientSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) TestCorroborate() {
	result := domain.CheckResult{CheckName: "website_review", RiskLevel: domain.RiskLow}

	s.Run("well-formed reply is normalized", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/v1/corroborate", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"RISK-LEVEL": "high", "summary": "site content inconsistent"}`))
		}))
		defer server.Close()

		reviewed, err := NewClient(server.URL, nil).Corroborate(s.ctx, domain.Case{}, result)
		s.Require().NoError(err)
		s.Equal(domain.RiskHigh, reviewed.RiskLevel)
		s.Equal("website_review", reviewed.CheckName)
	})

	s.Run("non-JSON body is an error, not a crash", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("internal reasoning error"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, nil).Corroborate(s.ctx, domain.Case{}, result)
		s.Require().Error(err)
	})

	s.Run("non-200 status is an error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewClient(server.URL, nil).Corroborate(s.ctx, domain.Case{}, result)
		s.Require().Error(err)
	})
}
