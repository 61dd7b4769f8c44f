// internal/reporting/summary.go
package reporting

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

// WriteSummary renders the markdown risk summary: scan metadata, the ranked
// findings, and a breakdown of which third parties received data.
func WriteSummary(w io.Writer, result *schemas.ScanResult) error {
	md := markdown.NewMarkdown(w)

	md.H1("Privacy Scan Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan ID", "`" + result.ScanID + "`"},
			{"Seed URL", result.SeedURL},
			{"Scan Date", result.StartedAt.UTC().Format("2006-01-02 15:04:05 MST")},
			{"Pages Visited", strconv.Itoa(len(result.VisitedPages))},
			{"Cookies Observed", strconv.Itoa(len(result.Cookies))},
			{"POST Requests Captured", strconv.Itoa(len(result.Requests))},
		},
	})
	md.PlainText("")

	writeRiskFindings(md, RankRisks(result))
	writeThirdParties(md, result)

	return md.Build()
}

func writeRiskFindings(md *markdown.Markdown, findings []schemas.RiskFinding) {
	md.H2("Risk Findings")
	md.PlainText("")

	if len(findings) == 0 {
		md.PlainText("No notable privacy risks were identified by the scan rules.")
		md.PlainText("")
		return
	}

	for i, f := range findings {
		md.PlainTextf("%d. [%s] %s (Reference: %s)", i+1, f.Severity, f.Description, f.Reference)
	}
	md.PlainText("")
}

func writeThirdParties(md *markdown.Markdown, result *schemas.ScanResult) {
	md.H2("Third-Party Destinations")
	md.PlainText("")

	seen := make(map[string]bool)
	var rows [][]string
	for i := range result.Requests {
		r := &result.Requests[i]
		if r.ThirdParty == nil || seen[r.DestinationHost] {
			continue
		}
		seen[r.DestinationHost] = true
		rows = append(rows, []string{r.DestinationHost, r.ThirdParty.Owner, string(r.ThirdParty.Category)})
	}

	if len(rows) == 0 {
		md.PlainText("No known third-party data processors received captured requests.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Owner", "Category"},
		Rows:   rows,
	})
	md.PlainText("")
}
