// internal/reporting/risk.go
package reporting

import (
	"fmt"
	"sort"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

// sensitiveCategories is the subset whose presence alone makes an
// observation High severity in the risk summary.
var sensitiveCategories = map[schemas.PiiCategory]bool{
	schemas.PiiEmail:                 true,
	schemas.PiiName:                  true,
	schemas.PiiPhone:                 true,
	schemas.PiiFinancial:             true,
	schemas.PiiHealth:                true,
	schemas.PiiSensitivePersonalData: true,
}

// maxSummaryFindings caps how many findings the summary surfaces.
const maxSummaryFindings = 10

// RankRisks evaluates the fixed risk rules over the scan and returns at most
// maxSummaryFindings findings, High severity first. The sort is stable, so
// within a tier findings keep discovery order (cookies before requests, each
// in pipeline order) and repeated runs over the same data rank identically.
func RankRisks(result *schemas.ScanResult) []schemas.RiskFinding {
	var findings []schemas.RiskFinding

	for i := range result.Cookies {
		c := &result.Cookies[i]

		if matched := sensitiveIn(schemas.CategoriesOf(c.Classifications)); len(matched) > 0 {
			findings = append(findings, schemas.RiskFinding{
				Severity: schemas.SeverityHigh,
				Description: fmt.Sprintf("Cookie %q stores sensitive data categories (%s).",
					c.Name, joinCategories(matched)),
				Reference: fmt.Sprintf("cookie %s on %s", c.Name, c.PageURL),
			})
		}

		if c.IsPersistent && c.IsThirdParty {
			findings = append(findings, schemas.RiskFinding{
				Severity: schemas.SeverityMedium,
				Description: fmt.Sprintf("Persistent third-party cookie %q set by %s.",
					c.Name, c.Domain),
				Reference: fmt.Sprintf("cookie %s on %s", c.Name, c.PageURL),
			})
		}
	}

	for i := range result.Requests {
		r := &result.Requests[i]

		matched := sensitiveIn(r.Categories())
		if len(matched) == 0 || r.ThirdParty == nil {
			continue
		}
		findings = append(findings, schemas.RiskFinding{
			Severity: schemas.SeverityHigh,
			Description: fmt.Sprintf("Sensitive data categories (%s) sent to %s (%s).",
				joinCategories(matched), r.ThirdParty.Owner, r.DestinationHost),
			Reference: fmt.Sprintf("request to %s", r.URL),
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return severityRank(findings[i].Severity) < severityRank(findings[j].Severity)
	})

	if len(findings) > maxSummaryFindings {
		findings = findings[:maxSummaryFindings]
	}
	return findings
}

func severityRank(s schemas.Severity) int {
	switch s {
	case schemas.SeverityHigh:
		return 0
	case schemas.SeverityMedium:
		return 1
	default:
		return 2
	}
}

func sensitiveIn(categories []schemas.PiiCategory) []schemas.PiiCategory {
	seen := make(map[schemas.PiiCategory]bool, len(categories))
	var out []schemas.PiiCategory
	for _, c := range categories {
		if sensitiveCategories[c] && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
