// File: internal/classify/classifier.go
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

// detector is a single value-pattern heuristic with a fixed confidence.
type detector struct {
	category   schemas.PiiCategory
	pattern    *regexp.Regexp
	confidence schemas.Confidence
}

// detectors is the ordered registry of value-pattern heuristics. Every
// detector is tested against every value; they never short-circuit one
// another, so a value can match several categories at once.
var detectors = []detector{
	{
		category:   schemas.PiiEmail,
		pattern:    regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`),
		confidence: schemas.ConfidenceHigh,
	},
	{
		category:   schemas.PiiPhone,
		pattern:    regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		confidence: schemas.ConfidenceMedium,
	},
	{
		category:   schemas.PiiIPAddress,
		pattern:    regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
		confidence: schemas.ConfidenceHigh,
	},
	{
		// Basic payment-card pattern. Deliberately not backed by a Luhn
		// check; medium confidence reflects the false-positive rate.
		category:   schemas.PiiFinancial,
		pattern:    regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`),
		confidence: schemas.ConfidenceMedium,
	},
}

// credentialKeyIndicators are substrings that mark a field key as
// credential-bearing regardless of what the value looks like.
var credentialKeyIndicators = []string{"password", "passwd", "secret"}

// Classify labels a key/value pair with personal-data categories. The result
// is never empty: when no heuristic fires, the single sentinel Other/low
// classification is returned. Classify is pure and deterministic.
func Classify(key string, value any) []schemas.Classification {
	var out []schemas.Classification

	if IsCredentialKey(key) {
		out = append(out, schemas.Classification{
			Category:   schemas.PiiPassword,
			Confidence: schemas.ConfidenceHigh,
			Heuristic:  "key_name",
		})
	}

	valueStr := stringify(value)
	for _, d := range detectors {
		if d.pattern.MatchString(valueStr) {
			out = append(out, schemas.Classification{
				Category:   d.category,
				Confidence: d.confidence,
				Heuristic:  "regex:" + d.pattern.String(),
			})
		}
	}

	if len(out) == 0 {
		out = append(out, schemas.Classification{
			Category:   schemas.PiiOther,
			Confidence: schemas.ConfidenceLow,
			Heuristic:  "none",
		})
	}
	return out
}

// IsCredentialKey reports whether a field key heuristically indicates a
// credential. The pipeline uses this to decide which request fields to
// redact before anything is persisted.
func IsCredentialKey(key string) bool {
	lower := strings.ToLower(key)
	for _, indicator := range credentialKeyIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// stringify converts an arbitrary decoded body value to the textual form the
// detectors run against. Malformed or exotic values degrade to their fmt
// representation rather than failing.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
