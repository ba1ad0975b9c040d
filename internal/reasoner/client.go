// Package reasoner is the client for the hosted reasoning service used to
// corroborate rule-based check results. The service is an opaque oracle: it
// receives a structured fact payload and returns a result-shaped reply, and
// the pipeline tolerates its absence or malformed replies by keeping the
// rule-based result.
package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"vetra/internal/domain"
)

const requestTimeout = 10 * time.Second

// Client calls the reasoning service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

func (c *Client) Name() string { return "reasoner" }

// corroborateRequest is the fact payload sent for review.
type corroborateRequest struct {
	CheckName      string                `json:"check_name"`
	RiskLevel      domain.RiskLevel      `json:"risk_level"`
	Recommendation domain.Recommendation `json:"recommendation"`
	Flags          []string              `json:"flags"`
	Summary        string                `json:"summary"`
	Output         map[string]any        `json:"output"`
	Entity         map[string]any        `json:"entity"`
}

// Corroborate submits the rule-based result with the case facts and returns
// the normalized reply. Any transport or shape failure is an error for the
// caller to degrade on.
func (c *Client) Corroborate(ctx context.Context, cas domain.Case, result domain.CheckResult) (domain.CheckResult, error) {
	payload := corroborateRequest{
		CheckName:      result.CheckName,
		RiskLevel:      result.RiskLevel,
		Recommendation: result.Recommendation,
		Flags:          result.Flags,
		Summary:        result.Summary,
		Output:         result.Output,
		Entity: map[string]any{
			"legal_name":   cas.LegalName,
			"jurisdiction": cas.Jurisdiction,
			"entity_type":  cas.EntityType,
			"website":      cas.Website,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("marshal corroborate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/corroborate", bytes.NewReader(body))
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("build corroborate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("call reasoner: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.CheckResult{}, fmt.Errorf("reasoner returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("read reasoner reply: %w", err)
	}
	var reply map[string]any
	if err := json.Unmarshal(raw, &reply); err != nil {
		return domain.CheckResult{}, fmt.Errorf("reasoner reply is not JSON: %w", err)
	}

	normalized, err := Normalize(reply)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("normalize reasoner reply: %w", err)
	}
	normalized.CheckName = result.CheckName
	if c.logger != nil {
		c.logger.DebugContext(ctx, "reasoner corroboration received",
			"check", result.CheckName,
			"risk_level", string(normalized.RiskLevel),
		)
	}
	return normalized, nil
}
