// internal/reporting/registry.go
package reporting

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
)

var registryHeader = []string{"domain", "owner", "category", "first_seen"}

// WriteThirdPartyRegistry emits one row per distinct third-party destination
// host that received a captured request. Deduplication is by hostname in
// first-seen order, so re-running a scan against unchanged traffic yields an
// identical registry.
func WriteThirdPartyRegistry(w io.Writer, result *schemas.ScanResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(registryHeader); err != nil {
		return err
	}

	firstSeen := result.StartedAt.UTC().Format(time.RFC3339)

	seen := make(map[string]bool)
	for i := range result.Requests {
		r := &result.Requests[i]
		if r.ThirdParty == nil || seen[r.DestinationHost] {
			continue
		}
		seen[r.DestinationHost] = true

		row := []string{
			r.DestinationHost,
			r.ThirdParty.Owner,
			string(r.ThirdParty.Category),
			firstSeen,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
