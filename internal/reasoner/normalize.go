package reasoner

import (
	"fmt"
	"strings"

	"vetra/internal/domain"
)

// Normalize adapts a loosely keyed reasoner reply into the typed result
// contract. The hosted service has shipped risk_level, riskLevel, and
// RISK-LEVEL across versions; key matching ignores case and separators so the
// stringly-typed guessing stays confined to this one seam.
func Normalize(payload map[string]any) (domain.CheckResult, error) {
	level, ok := stringField(payload, "risk_level")
	if !ok {
		return domain.CheckResult{}, fmt.Errorf("reply missing risk level")
	}
	riskLevel := domain.RiskLevel(strings.ToUpper(strings.TrimSpace(level)))
	if !riskLevel.Valid() {
		return domain.CheckResult{}, fmt.Errorf("reply risk level %q not recognized", level)
	}

	result := domain.CheckResult{RiskLevel: riskLevel}
	if rec, ok := stringField(payload, "recommendation"); ok {
		switch domain.Recommendation(strings.ToUpper(strings.TrimSpace(rec))) {
		case domain.RecommendPass:
			result.Recommendation = domain.RecommendPass
		case domain.RecommendFlag:
			result.Recommendation = domain.RecommendFlag
		case domain.RecommendReject:
			result.Recommendation = domain.RecommendReject
		default:
			return domain.CheckResult{}, fmt.Errorf("reply recommendation %q not recognized", rec)
		}
	}
	if summary, ok := stringField(payload, "summary"); ok {
		result.Summary = summary
	}
	if raw, ok := field(payload, "flags"); ok {
		flags, ok := raw.([]any)
		if !ok {
			return domain.CheckResult{}, fmt.Errorf("reply flags are not a list")
		}
		for _, f := range flags {
			flag, ok := f.(string)
			if !ok {
				return domain.CheckResult{}, fmt.Errorf("reply flag %v is not a string", f)
			}
			result.Flags = append(result.Flags, flag)
		}
	}
	if raw, ok := field(payload, "output"); ok {
		if output, isMap := raw.(map[string]any); isMap {
			result.Output = output
		}
	}
	return result, nil
}

// field finds a payload value by canonical key, tolerating casing and
// separator variants.
func field(payload map[string]any, canonical string) (any, bool) {
	want := canonicalKey(canonical)
	for key, value := range payload {
		if canonicalKey(key) == want {
			return value, true
		}
	}
	return nil, false
}

func stringField(payload map[string]any, canonical string) (string, bool) {
	raw, ok := field(payload, canonical)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func canonicalKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '_', '-', ' ':
			continue
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}
