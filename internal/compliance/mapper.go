// File: internal/compliance/mapper.go
// Maps already-classified observations to the regulations that plausibly
// apply, with generated per-finding reasoning. This stage never re-classifies
// anything; it is a pure function of classification output plus context
// flags.
package compliance

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

// gdprPersonalData is the category set that triggers a GDPR finding
// (personal data under Art. 4(1)).
var gdprPersonalData = map[schemas.PiiCategory]bool{
	schemas.PiiEmail:                 true,
	schemas.PiiName:                  true,
	schemas.PiiPhone:                 true,
	schemas.PiiIPAddress:             true,
	schemas.PiiDeviceID:              true,
	schemas.PiiFinancial:             true,
	schemas.PiiHealth:                true,
	schemas.PiiSensitivePersonalData: true,
	schemas.PiiCookieID:              true,
}

// ccpaPersonalInformation is the CCPA/CPRA superset: everything GDPR counts
// plus postal addresses and behavioral data.
var ccpaPersonalInformation = func() map[schemas.PiiCategory]bool {
	m := make(map[schemas.PiiCategory]bool, len(gdprPersonalData)+2)
	for k := range gdprPersonalData {
		m[k] = true
	}
	m[schemas.PiiPostalAddress] = true
	m[schemas.PiiBehavioral] = true
	return m
}()

// CookieFacts is the mapper's view of one processed cookie. IsThirdParty is
// deliberately absent: the source behavior never fed it into regulation
// mapping (only the report's risk rules consume it), and we preserve that
// gap rather than invent a rule.
type CookieFacts struct {
	Name            string
	Classifications []schemas.Classification
	IsPersistent    bool
}

// RequestFacts is the mapper's view of one processed request.
type RequestFacts struct {
	Fields     []schemas.ClassifiedField
	ThirdParty *schemas.ThirdPartyInfo
}

// MapCookie returns every regulation whose rule fires for the cookie, in
// fixed priority order (GDPR, CCPA/CPRA, PECR) so report output stays
// deterministic. Rules are evaluated independently; this is a union, not a
// first-match dispatch. An empty slice means no obligation was triggered.
func MapCookie(facts CookieFacts) []schemas.RegulationFinding {
	var findings []schemas.RegulationFinding

	if matched := matching(schemas.CategoriesOf(facts.Classifications), gdprPersonalData); len(matched) > 0 {
		findings = append(findings, schemas.RegulationFinding{
			Name: schemas.RegulationGDPR,
			Reasoning: fmt.Sprintf(
				"Cookie contains personal data (%s), as defined in GDPR Art. 4(1).",
				joinCategories(matched)),
		})
	}

	if matched := matching(schemas.CategoriesOf(facts.Classifications), ccpaPersonalInformation); len(matched) > 0 {
		findings = append(findings, schemas.RegulationFinding{
			Name: schemas.RegulationCCPA,
			Reasoning: fmt.Sprintf(
				"Cookie contains personal information (%s), as defined under CCPA/CPRA.",
				joinCategories(matched)),
		})
	}

	// A persistent cookie is itself an obligation trigger under PECR,
	// independent of what data it carries.
	if facts.IsPersistent {
		findings = append(findings, schemas.RegulationFinding{
			Name: schemas.RegulationPECR,
			Reasoning: fmt.Sprintf(
				"Persistent cookie %q detected. PECR requires user consent for storing information on a user's device.",
				facts.Name),
		})
	}

	return findings
}

// MapRequest returns every regulation whose rule fires for the request, in
// the same fixed order as MapCookie.
func MapRequest(facts RequestFacts) []schemas.RegulationFinding {
	var categories []schemas.PiiCategory
	for _, f := range facts.Fields {
		categories = append(categories, schemas.CategoriesOf(f.Classifications)...)
	}

	var findings []schemas.RegulationFinding

	if matched := matching(categories, gdprPersonalData); len(matched) > 0 {
		reasoning := fmt.Sprintf(
			"Request body contains personal data (%s), as defined in GDPR Art. 4(1).",
			joinCategories(matched))
		if facts.ThirdParty != nil {
			reasoning += fmt.Sprintf(
				" Transfer to %s may require a legal basis for cross-border data transfer.",
				facts.ThirdParty.Owner)
		}
		findings = append(findings, schemas.RegulationFinding{
			Name:      schemas.RegulationGDPR,
			Reasoning: reasoning,
		})
	}

	if matched := matching(categories, ccpaPersonalInformation); len(matched) > 0 {
		reasoning := fmt.Sprintf(
			"Request body contains personal information (%s), as defined under CCPA/CPRA.",
			joinCategories(matched))
		if facts.ThirdParty != nil &&
			(facts.ThirdParty.Category == schemas.TrackerAdvertising ||
				facts.ThirdParty.Category == schemas.TrackerAnalytics) {
			reasoning += ` This may be considered a "sale" or "sharing" of data.`
		}
		findings = append(findings, schemas.RegulationFinding{
			Name:      schemas.RegulationCCPA,
			Reasoning: reasoning,
		})
	}

	return findings
}

// matching returns the categories that belong to the given set, deduplicated
// and in first-seen order.
func matching(categories []schemas.PiiCategory, set map[schemas.PiiCategory]bool) []schemas.PiiCategory {
	seen := make(map[schemas.PiiCategory]bool, len(categories))
	var out []schemas.PiiCategory
	for _, c := range categories {
		if set[c] && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func joinCategories(categories []schemas.PiiCategory) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
