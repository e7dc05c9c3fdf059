package threat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Ordering(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
	assert.True(t, SeverityLow < SeverityMedium)
}

func TestSeverity_Text(t *testing.T) {
	s, err := ParseSeverity("critical")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, s)

	_, err = ParseSeverity("apocalyptic")
	assert.Error(t, err)

	data, err := json.Marshal(Intelligence{Severity: SeverityHigh, IPAddress: "203.0.113.9"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"High"`)

	var decoded Intelligence
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, SeverityHigh, decoded.Severity)
}

func TestAnyAtLeast(t *testing.T) {
	assert.False(t, AnyAtLeast(nil, SeverityHigh))
	assert.False(t, AnyAtLeast([]Intelligence{{Severity: SeverityMedium}}, SeverityHigh))
	assert.True(t, AnyAtLeast([]Intelligence{{Severity: SeverityLow}, {Severity: SeverityCritical}}, SeverityHigh))
}

func TestSeverityForDeviation(t *testing.T) {
	assert.Equal(t, SeverityLow, SeverityForDeviation(0.6))
	assert.Equal(t, SeverityMedium, SeverityForDeviation(1))
	assert.Equal(t, SeverityHigh, SeverityForDeviation(2.5))
}

func TestSortRisks(t *testing.T) {
	risks := []Risk{
		{ID: "a", Severity: SeverityLow},
		{ID: "b", Severity: SeverityHigh},
		{ID: "c", Severity: SeverityMedium},
		{ID: "d", Severity: SeverityHigh},
	}
	SortRisks(risks)

	ids := make([]string, len(risks))
	for i, r := range risks {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
}
