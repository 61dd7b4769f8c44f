package compliance_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/privscope-cli/api/schemas"
	"github.com/xkilldash9x/privscope-cli/internal/compliance"
)

func classified(cats ...schemas.PiiCategory) []schemas.Classification {
	out := make([]schemas.Classification, len(cats))
	for i, c := range cats {
		out[i] = schemas.Classification{Category: c, Confidence: schemas.ConfidenceHigh, Heuristic: "test"}
	}
	return out
}

func TestMapCookie_EmailPersistent_AllThreeRegulationsInOrder(t *testing.T) {
	findings := compliance.MapCookie(compliance.CookieFacts{
		Name:            "uid",
		Classifications: classified(schemas.PiiEmail),
		IsPersistent:    true,
	})

	require.Len(t, findings, 3)
	assert.Equal(t, schemas.RegulationGDPR, findings[0].Name)
	assert.Equal(t, schemas.RegulationCCPA, findings[1].Name)
	assert.Equal(t, schemas.RegulationPECR, findings[2].Name)
}

func TestMapCookie_OtherOnlyNonPersistent_NoFindings(t *testing.T) {
	findings := compliance.MapCookie(compliance.CookieFacts{
		Name:            "theme",
		Classifications: classified(schemas.PiiOther),
		IsPersistent:    false,
	})
	assert.Empty(t, findings)
}

func TestMapCookie_PersistentOnly_PECROnly(t *testing.T) {
	findings := compliance.MapCookie(compliance.CookieFacts{
		Name:            "prefs",
		Classifications: classified(schemas.PiiOther),
		IsPersistent:    true,
	})

	require.Len(t, findings, 1)
	assert.Equal(t, schemas.RegulationPECR, findings[0].Name)
	assert.Contains(t, findings[0].Reasoning, `"prefs"`)
	assert.Contains(t, findings[0].Reasoning, "consent")
}

func TestMapCookie_ReasoningNamesMatchedCategories(t *testing.T) {
	findings := compliance.MapCookie(compliance.CookieFacts{
		Name:            "session",
		Classifications: classified(schemas.PiiEmail, schemas.PiiIPAddress),
	})

	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0].Reasoning, "Email")
	assert.Contains(t, findings[0].Reasoning, "IpAddress")
	assert.Contains(t, findings[0].Reasoning, "GDPR Art. 4(1)")
}

func TestMapCookie_BehavioralIsCCPAOnly(t *testing.T) {
	// Behavioral data is in the CCPA superset but not the GDPR set.
	findings := compliance.MapCookie(compliance.CookieFacts{
		Name:            "segments",
		Classifications: classified(schemas.PiiBehavioral),
	})

	require.Len(t, findings, 1)
	assert.Equal(t, schemas.RegulationCCPA, findings[0].Name)
	assert.Contains(t, findings[0].Reasoning, "Behavioral")
}

func TestMapRequest_FinancialToAdvertiser_SaleCaveat(t *testing.T) {
	findings := compliance.MapRequest(compliance.RequestFacts{
		Fields: []schemas.ClassifiedField{
			{Key: "card", Value: "digest", Classifications: classified(schemas.PiiFinancial)},
		},
		ThirdParty: &schemas.ThirdPartyInfo{Owner: "Acme", Category: schemas.TrackerAdvertising},
	})

	require.Len(t, findings, 2)

	var ccpa *schemas.RegulationFinding
	for i := range findings {
		if findings[i].Name == schemas.RegulationCCPA {
			ccpa = &findings[i]
		}
	}
	require.NotNil(t, ccpa)
	saleOrSharing := ccpa.Reasoning
	assert.True(t,
		strings.Contains(saleOrSharing, "sale") || strings.Contains(saleOrSharing, "sharing"),
		"CCPA reasoning must mention sale or sharing, got: %s", saleOrSharing)
}

func TestMapRequest_ThirdPartyTransferCaveat(t *testing.T) {
	findings := compliance.MapRequest(compliance.RequestFacts{
		Fields: []schemas.ClassifiedField{
			{Key: "email", Value: "x@y.z", Classifications: classified(schemas.PiiEmail)},
		},
		ThirdParty: &schemas.ThirdPartyInfo{Owner: "Quantcast", Category: schemas.TrackerAnalytics},
	})

	require.NotEmpty(t, findings)
	assert.Equal(t, schemas.RegulationGDPR, findings[0].Name)
	assert.Contains(t, findings[0].Reasoning, "Quantcast")
	assert.Contains(t, findings[0].Reasoning, "cross-border")
}

func TestMapRequest_CDNThirdParty_NoSaleCaveat(t *testing.T) {
	findings := compliance.MapRequest(compliance.RequestFacts{
		Fields: []schemas.ClassifiedField{
			{Key: "email", Value: "x@y.z", Classifications: classified(schemas.PiiEmail)},
		},
		ThirdParty: &schemas.ThirdPartyInfo{Owner: "Creative CDN", Category: schemas.TrackerCDN},
	})

	for _, f := range findings {
		if f.Name == schemas.RegulationCCPA {
			assert.NotContains(t, f.Reasoning, "sale")
		}
	}
}

func TestMapRequest_NoRelevantCategories_Empty(t *testing.T) {
	findings := compliance.MapRequest(compliance.RequestFacts{
		Fields: []schemas.ClassifiedField{
			{Key: "theme", Value: "dark", Classifications: classified(schemas.PiiOther)},
		},
	})
	assert.Empty(t, findings)
}

func TestMapRequest_DifferentInputsProduceDifferentReasoning(t *testing.T) {
	a := compliance.MapRequest(compliance.RequestFacts{
		Fields: []schemas.ClassifiedField{
			{Key: "e", Classifications: classified(schemas.PiiEmail)},
		},
	})
	b := compliance.MapRequest(compliance.RequestFacts{
		Fields: []schemas.ClassifiedField{
			{Key: "p", Classifications: classified(schemas.PiiPhone)},
		},
	})
	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	assert.NotEqual(t, a[0].Reasoning, b[0].Reasoning)
}
