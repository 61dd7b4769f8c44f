package schemas

import (
	"strings"
	"time"
)

// -- Capture Schemas --
// Raw observations as they come off the browser. Derived attributes (third
// party status, persistence, digests) are computed downstream by the pipeline
// and never stored here.

// ObservedCookie is a cookie snapshot taken from the browsing context while a
// particular page was active. Value still holds the raw cookie value at this
// stage; it is digested and discarded before anything is persisted.
type ObservedCookie struct {
	Name     string
	Domain   string
	Path     string
	Value    string
	Secure   bool
	HTTPOnly bool
	SameSite string
	// ExpiresAt is nil for session cookies.
	ExpiresAt *time.Time
	// PageURL is the page that was active when the snapshot was taken.
	PageURL string
}

// ObservedRequest is a completed POST request/response pair. The capture
// engine only emits requests whose response has been observed; unmatched
// requests are discarded at session end.
type ObservedRequest struct {
	URL            string
	Method         string
	RequestHeaders map[string]string
	// RawBody is the request post data, if any. May be any content type;
	// structured parsing happens in the pipeline.
	RawBody        []byte
	ResponseStatus int
	// OriginPageURL is the page that was active when the request fired.
	OriginPageURL string
}

// ContentType returns the request Content-Type header, case-insensitively.
func (r *ObservedRequest) ContentType() string {
	for k, v := range r.RequestHeaders {
		if strings.EqualFold(k, "Content-Type") {
			return v
		}
	}
	return ""
}

// CaptureResult bundles everything one crawl session observed.
type CaptureResult struct {
	SeedURL      string
	VisitedPages []string
	Cookies      []ObservedCookie
	Requests     []ObservedRequest
	StartedAt    time.Time
}
