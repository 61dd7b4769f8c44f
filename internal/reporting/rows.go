// internal/reporting/rows.go
package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rowHeader is the fixed column schema of the row-level dataset. The
// third_party_country, cross_border, and remediation_suggestion columns are
// reserved and always blank; consumers depend on their presence, not their
// content.
var rowHeader = []string{
	"timestamp",
	"row_type",
	"page_url",
	"cookie_name",
	"cookie_domain",
	"cookie_flags",
	"cookie_hashed_value",
	"request_url",
	"request_destination_origin",
	"http_status",
	"content_type",
	"request_method",
	"request_fields",
	"classified_data_types",
	"third_party_owner",
	"third_party_country",
	"cross_border",
	"potential_regulations",
	"compliance_reasoning",
	"remediation_suggestion",
}

// WriteRows emits the row-level dataset: one row per processed cookie, then
// one per processed request, in pipeline order.
func WriteRows(w io.Writer, result *schemas.ScanResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(rowHeader); err != nil {
		return err
	}

	timestamp := result.StartedAt.UTC().Format(time.RFC3339)

	for i := range result.Cookies {
		if err := cw.Write(cookieRow(timestamp, &result.Cookies[i])); err != nil {
			return err
		}
	}
	for i := range result.Requests {
		if err := cw.Write(requestRow(timestamp, &result.Requests[i])); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func cookieRow(timestamp string, c *schemas.ProcessedCookie) []string {
	return []string{
		timestamp,
		"cookie",
		c.PageURL,
		c.Name,
		c.Domain,
		fmt.Sprintf("secure: %t, httpOnly: %t, sameSite: %s", c.Secure, c.HTTPOnly, c.SameSite),
		c.HashedValue,
		"", // request_url
		"", // request_destination_origin
		"", // http_status
		"", // content_type
		"", // request_method
		"", // request_fields
		joinCategories(schemas.CategoriesOf(c.Classifications)),
		"", // third_party_owner
		"", // third_party_country (reserved)
		"", // cross_border (reserved)
		joinRegulationNames(c.Regulations),
		joinReasoning(c.Regulations),
		"", // remediation_suggestion (reserved)
	}
}

func requestRow(timestamp string, r *schemas.ProcessedRequest) []string {
	owner := ""
	if r.ThirdParty != nil {
		owner = r.ThirdParty.Owner
	}

	return []string{
		timestamp,
		"post_request",
		r.OriginPageURL,
		"", // cookie_name
		"", // cookie_domain
		"", // cookie_flags
		"", // cookie_hashed_value
		r.URL,
		r.DestinationHost,
		strconv.Itoa(r.ResponseStatus),
		r.ContentType,
		r.Method,
		serializeFields(r.Fields),
		joinCategories(r.Categories()),
		owner,
		"", // third_party_country (reserved)
		"", // cross_border (reserved)
		joinRegulationNames(r.Regulations),
		joinReasoning(r.Regulations),
		"", // remediation_suggestion (reserved)
	}
}

// serializeFields renders the classified fields as JSON. Field values have
// already passed the pipeline's redaction point, so this is safe to persist.
func serializeFields(fields []schemas.ClassifiedField) string {
	if len(fields) == 0 {
		return ""
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(b)
}

// joinCategories comma-joins categories, deduplicated in first-seen order.
func joinCategories(categories []schemas.PiiCategory) string {
	seen := make(map[schemas.PiiCategory]bool, len(categories))
	var parts []string
	for _, c := range categories {
		if !seen[c] {
			seen[c] = true
			parts = append(parts, string(c))
		}
	}
	return strings.Join(parts, ", ")
}

func joinRegulationNames(findings []schemas.RegulationFinding) string {
	parts := make([]string, len(findings))
	for i, f := range findings {
		parts[i] = string(f.Name)
	}
	return strings.Join(parts, ", ")
}

func joinReasoning(findings []schemas.RegulationFinding) string {
	parts := make([]string, len(findings))
	for i, f := range findings {
		parts[i] = f.Reasoning
	}
	return strings.Join(parts, "; ")
}
