package screening

import "strings"

// corporateStopwords are high-frequency, low-information tokens that would
// otherwise cause pervasive false positives against a list of thousands of
// entities. The set is fixed: the matcher is deliberately conservative and
// tuning it per deployment would change screening semantics.
var corporateStopwords = map[string]struct{}{
	"group":         {},
	"holdings":      {},
	"holding":       {},
	"international": {},
	"limited":       {},
	"company":       {},
	"capital":       {},
	"financial":     {},
	"partners":      {},
	"services":      {},
	"global":        {},
	"enterprises":   {},
	"corporation":   {},
	"incorporated":  {},
	"bank":          {},
	"trust":         {},
}

// Tokenize splits a candidate name on whitespace and discards tokens of
// length <= 3 and tokens in the corporate stopword set. Tokens come back
// lowercased. An empty result means the name is insufficiently specific to
// screen; callers must not treat that as a clean pass.
func Tokenize(name string) []string {
	var tokens []string
	for _, raw := range strings.Fields(name) {
		token := strings.ToLower(strings.Trim(raw, ".,&()"))
		if len(token) <= 3 {
			continue
		}
		if _, stop := corporateStopwords[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
