// Package screening implements the fuzzy entity-name matching used by the
// sanctions checks. Matching is deliberately simple and conservative:
// case-insensitive substring hits on surviving name tokens, favoring false
// positives over false negatives. No phonetic or true name-disambiguation is
// attempted.
package screening

import (
	"context"
	"fmt"

	"vetra/internal/domain"
)

// SanctionsSearcher is the slice of the reference store the matcher needs:
// every reference row whose entity name contains the token, case-insensitive.
type SanctionsSearcher interface {
	SearchSanctions(ctx context.Context, token string) ([]domain.SanctionsEntry, error)
}

// Hit is one deduplicated sanctions match for a screened name.
type Hit struct {
	MatchedName string `json:"matched_name"`
	EntityType  string `json:"entity_type"`
	Program     string `json:"program"`
	ListType    string `json:"list_type"`
	Country     string `json:"country"`
}

// Report is the outcome of screening one candidate name.
type Report struct {
	Name         string   `json:"name"`
	Tokens       []string `json:"tokens"`
	Hits         []Hit    `json:"hits"`
	Insufficient bool     `json:"insufficient"` // name yielded zero usable tokens
}

// Matcher screens candidate names against the sanctions reference list.
type Matcher struct {
	store SanctionsSearcher
}

// NewMatcher builds a matcher over the given reference searcher.
func NewMatcher(store SanctionsSearcher) *Matcher {
	return &Matcher{store: store}
}

// Match tokenizes the candidate name and collects reference hits for each
// surviving token. Hits are deduplicated by (matched name, program) pair so an
// entity listed under one program counts once however many tokens strike it.
func (m *Matcher) Match(ctx context.Context, name string) (Report, error) {
	report := Report{Name: name, Tokens: Tokenize(name)}
	if len(report.Tokens) == 0 {
		report.Insufficient = true
		return report, nil
	}

	seen := make(map[string]struct{})
	for _, token := range report.Tokens {
		entries, err := m.store.SearchSanctions(ctx, token)
		if err != nil {
			return report, fmt.Errorf("sanctions search %q: %w", token, err)
		}
		for _, e := range entries {
			key := e.EntityName + "\x00" + e.Program
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			report.Hits = append(report.Hits, Hit{
				MatchedName: e.EntityName,
				EntityType:  e.EntityType,
				Program:     e.Program,
				ListType:    e.ListType,
				Country:     e.Country,
			})
		}
	}
	return report, nil
}
