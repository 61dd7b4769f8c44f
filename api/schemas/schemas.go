package schemas

// -- Classification Schemas --

// PiiCategory is a closed enumeration of the personal-data categories the
// classifier can attach to an observed value. Keeping this a typed constant
// set (rather than free-form strings) lets the compliance mapper switch over
// it exhaustively.
type PiiCategory string

// Constants defining the recognized personal-data categories.
const (
	PiiEmail                 PiiCategory = "Email"
	PiiName                  PiiCategory = "Name"
	PiiPhone                 PiiCategory = "Phone"
	PiiIPAddress             PiiCategory = "IpAddress"
	PiiDeviceID              PiiCategory = "DeviceId"
	PiiFinancial             PiiCategory = "Financial"
	PiiHealth                PiiCategory = "Health"
	PiiSensitivePersonalData PiiCategory = "SensitivePersonalData"
	PiiCookieID              PiiCategory = "CookieId"
	PiiPostalAddress         PiiCategory = "PostalAddress"
	PiiBehavioral            PiiCategory = "Behavioral"
	PiiPassword              PiiCategory = "Password"
	// PiiOther is the sentinel category: every classified value carries at
	// least one classification, and this is the one that fires when nothing
	// else matched.
	PiiOther PiiCategory = "Other"
)

// Confidence expresses how strongly a heuristic believes its match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Classification is a single category label produced by the classifier,
// together with the confidence level and the heuristic that fired.
type Classification struct {
	Category   PiiCategory `json:"category"`
	Confidence Confidence  `json:"confidence"`
	Heuristic  string      `json:"heuristic"`
}

// CategoriesOf flattens a classification list to its category labels,
// preserving order.
func CategoriesOf(cls []Classification) []PiiCategory {
	out := make([]PiiCategory, 0, len(cls))
	for _, c := range cls {
		out = append(out, c.Category)
	}
	return out
}

// -- Third-Party Schemas --

// TrackerCategory groups known data processors by their primary business.
type TrackerCategory string

const (
	TrackerAdvertising TrackerCategory = "Advertising"
	TrackerAnalytics   TrackerCategory = "Analytics"
	TrackerCDN         TrackerCategory = "CDN"
	TrackerVarious     TrackerCategory = "Various"
)

// ThirdPartyInfo identifies the owner of a known tracking/processing domain.
// A nil *ThirdPartyInfo means "unknown destination", which callers must treat
// as unclassified, never as first-party or safe.
type ThirdPartyInfo struct {
	Owner    string          `json:"owner"`
	Category TrackerCategory `json:"category"`
}

// -- Regulation Schemas --

// RegulationName is a closed enumeration of the data-protection regimes the
// mapper can cite.
type RegulationName string

const (
	RegulationGDPR RegulationName = "GDPR"
	RegulationCCPA RegulationName = "CCPA/CPRA"
	RegulationPECR RegulationName = "PECR"
)

// RegulationFinding pairs a regulation with generated reasoning text. The
// reasoning is built per call from the actual matched categories and owners;
// it is never a canned per-regulation string.
type RegulationFinding struct {
	Name      RegulationName `json:"name"`
	Reasoning string         `json:"reasoning"`
}

// -- Risk Summary Schemas --

// Severity ranks a risk summary finding.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// RiskFinding is a single human-readable entry in the ranked risk summary.
// It is a report-stage view, never authoritative state.
type RiskFinding struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Reference   string   `json:"reference"`
}
