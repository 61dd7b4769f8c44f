// internal/pipeline/pipeline.go
// The orchestrator: turns raw capture output into finalized, report-ready
// records. This is the only place raw sensitive values are read; they are
// digested here and discarded, so nothing downstream can see cleartext.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"runtime"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
	"github.com/xkilldash9x/privscope-cli/internal/classify"
	"github.com/xkilldash9x/privscope-cli/internal/compliance"
	"github.com/xkilldash9x/privscope-cli/internal/thirdparty"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// persistenceHorizon is how far in the future a cookie's expiry must lie for
// the cookie to count as persistent.
const persistenceHorizon = 30 * 24 * time.Hour

// Processor transforms a CaptureResult into a ScanResult. Per-record work is
// pure and independent, so records are processed in parallel; output order
// still matches capture order.
type Processor struct {
	logger *zap.Logger

	// now is swappable for tests exercising the persistence horizon.
	now func() time.Time
}

func NewProcessor(logger *zap.Logger) *Processor {
	return &Processor{
		logger: logger.Named("pipeline"),
		now:    time.Now,
	}
}

// Process derives the report-ready records from one capture session. The
// classification, resolution, and mapping stages are total; the only error
// paths here are context cancellation and an unusable seed URL.
func (p *Processor) Process(ctx context.Context, scanID string, capture *schemas.CaptureResult) (*schemas.ScanResult, error) {
	seed, err := url.Parse(capture.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed URL %q: %w", capture.SeedURL, err)
	}
	seedHost := seed.Hostname()

	result := &schemas.ScanResult{
		ScanID:       scanID,
		SeedURL:      capture.SeedURL,
		StartedAt:    capture.StartedAt,
		VisitedPages: capture.VisitedPages,
		Cookies:      make([]schemas.ProcessedCookie, len(capture.Cookies)),
		Requests:     make([]schemas.ProcessedRequest, len(capture.Requests)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, cookie := range capture.Cookies {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			result.Cookies[i] = p.processCookie(cookie, seedHost)
			return nil
		})
	}

	for i, request := range capture.Requests {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			result.Requests[i] = p.processRequest(request)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("Pipeline complete.",
		zap.String("scan_id", scanID),
		zap.Int("cookies", len(result.Cookies)),
		zap.Int("requests", len(result.Requests)))

	return result, nil
}

func (p *Processor) processCookie(c schemas.ObservedCookie, seedHost string) schemas.ProcessedCookie {
	classifications := classify.Classify(c.Name, c.Value)

	isPersistent := c.ExpiresAt != nil && c.ExpiresAt.After(p.now().Add(persistenceHorizon))

	out := schemas.ProcessedCookie{
		Name:            c.Name,
		Domain:          c.Domain,
		PageURL:         c.PageURL,
		Secure:          c.Secure,
		HTTPOnly:        c.HTTPOnly,
		SameSite:        c.SameSite,
		ExpiresAt:       c.ExpiresAt,
		IsThirdParty:    !thirdparty.SameSite(c.Domain, seedHost),
		IsPersistent:    isPersistent,
		HashedValue:     digest(c.Value),
		Classifications: classifications,
	}
	out.Regulations = compliance.MapCookie(compliance.CookieFacts{
		Name:            c.Name,
		Classifications: classifications,
		IsPersistent:    isPersistent,
	})
	return out
}

func (p *Processor) processRequest(r schemas.ObservedRequest) schemas.ProcessedRequest {
	out := schemas.ProcessedRequest{
		URL:            r.URL,
		Method:         r.Method,
		OriginPageURL:  r.OriginPageURL,
		ResponseStatus: r.ResponseStatus,
		ContentType:    r.ContentType(),
	}

	if u, err := url.Parse(r.URL); err == nil {
		out.DestinationHost = u.Hostname()
	}

	for _, field := range parseBody(r.RawBody, out.ContentType) {
		cf := schemas.ClassifiedField{
			Key:             field.key,
			Value:           field.value,
			Classifications: classify.Classify(field.key, field.value),
		}
		// The single redaction point: a credential-like field leaves this
		// stage as a digest, never cleartext.
		if classify.IsCredentialKey(field.key) {
			cf.Value = digest(field.value)
		}
		out.Fields = append(out.Fields, cf)
	}

	out.ThirdParty = thirdparty.Resolve(out.DestinationHost)
	out.Regulations = compliance.MapRequest(compliance.RequestFacts{
		Fields:     out.Fields,
		ThirdParty: out.ThirdParty,
	})
	return out
}

type bodyField struct {
	key   string
	value string
}

// parseBody extracts the top-level fields of a structured request body.
// JSON objects and urlencoded forms are understood; anything else yields no
// fields, which is a degraded record, not an error.
func parseBody(raw []byte, contentType string) []bodyField {
	if len(raw) == 0 {
		return nil
	}

	if fields, ok := parseJSONBody(raw); ok {
		return fields
	}

	if strings.Contains(strings.ToLower(contentType), "x-www-form-urlencoded") {
		return parseFormBody(raw)
	}

	return nil
}

func parseJSONBody(raw []byte) ([]bodyField, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}

	// Map iteration order is random; sort keys so reports are reproducible.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]bodyField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, bodyField{key: k, value: stringifyValue(obj[k])})
	}
	return fields, true
}

func parseFormBody(raw []byte) []bodyField {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fields []bodyField
	for _, k := range keys {
		for _, v := range values[k] {
			fields = append(fields, bodyField{key: k, value: v})
		}
	}
	return fields
}

// stringifyValue flattens a decoded JSON value to the string the classifier
// sees. Nested structures are re-serialized so a buried email address still
// hits the value detectors.
func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]interface{}, []interface{}:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// digest is the one-way transform applied to every sensitive value before it
// can be persisted.
func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
