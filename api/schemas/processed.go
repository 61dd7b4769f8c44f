package schemas

import "time"

// -- Processed Schemas --
// Immutable records produced by the pipeline. By the time these exist the raw
// cookie value and any credential-like field values have been replaced by
// one-way digests; nothing downstream can recover the originals.

// ClassifiedField is one top-level field of a structured request body with
// its classifications attached. Value holds a digest, not the original, when
// the key looked credential-like.
type ClassifiedField struct {
	Key             string           `json:"key"`
	Value           string           `json:"value"`
	Classifications []Classification `json:"classifications"`
}

// ProcessedCookie is the final, report-ready view of one observed cookie.
type ProcessedCookie struct {
	Name     string
	Domain   string
	PageURL  string
	Secure   bool
	HTTPOnly bool
	SameSite string
	// ExpiresAt is nil for session cookies.
	ExpiresAt *time.Time

	// Derived attributes.
	IsThirdParty bool
	IsPersistent bool
	HashedValue  string

	Classifications []Classification
	Regulations     []RegulationFinding
}

// ProcessedRequest is the final, report-ready view of one captured POST
// request.
type ProcessedRequest struct {
	URL             string
	Method          string
	OriginPageURL   string
	DestinationHost string
	ResponseStatus  int
	ContentType     string

	// Fields is empty when the body was absent or not structured data; an
	// unparseable body is not an error, just an unclassified record.
	Fields []ClassifiedField

	// ThirdParty is nil when the destination is not a known data processor.
	ThirdParty  *ThirdPartyInfo
	Regulations []RegulationFinding
}

// Categories returns the union of all field categories, in field order.
func (r *ProcessedRequest) Categories() []PiiCategory {
	var out []PiiCategory
	for _, f := range r.Fields {
		out = append(out, CategoriesOf(f.Classifications)...)
	}
	return out
}

// ScanResult is the full output of one pipeline run, handed to the report
// generator and then discarded. There is no cross-session store.
type ScanResult struct {
	ScanID       string
	SeedURL      string
	StartedAt    time.Time
	VisitedPages []string
	Cookies      []ProcessedCookie
	Requests     []ProcessedRequest
}
