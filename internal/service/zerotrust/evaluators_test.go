package zerotrust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

func TestDeviceTrust(t *testing.T) {
	assert.InDelta(t, 1.0, deviceTrust(true, true), 1e-9)
	assert.InDelta(t, 0.7, deviceTrust(true, false), 1e-9)
	assert.InDelta(t, 0.6, deviceTrust(false, true), 1e-9)
	assert.InDelta(t, 0.3, deviceTrust(false, false), 1e-9)
}

func TestLocationTrust(t *testing.T) {
	tests := []struct {
		name       string
		known      bool
		reputation float64
		want       float64
	}{
		{"known with perfect reputation", true, 1.0, 1.0},
		{"known with good reputation", true, 0.9, 0.96},
		{"unknown with no reputation", false, 0, 0.2},
		{"unknown with poor reputation", false, 0.3, 0.32},
		{"reputation above range is clamped", false, 5, 0.6},
		{"negative reputation is clamped", true, -1, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, locationTrust(tt.known, tt.reputation), 1e-9)
		})
	}
}

func TestBehavioralTrust(t *testing.T) {
	assert.Equal(t, 0.5, behavioralTrust(false, 0))
	assert.Equal(t, 0.5, behavioralTrust(false, 3))
	assert.Equal(t, 0.8, behavioralTrust(true, 0))
	assert.InDelta(t, 0.5, behavioralTrust(true, 1), 1e-9)
	assert.Equal(t, 0.0, behavioralTrust(true, 3))
	assert.Equal(t, 0.8, behavioralTrust(true, -1))
}

func TestTemporalTrust(t *testing.T) {
	tests := []struct {
		hour int
		want float64
	}{
		{0, 0.4},
		{8, 0.4},
		{9, 0.8},
		{13, 0.8},
		{17, 0.8},
		{18, 0.4},
		{23, 0.4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, temporalTrust(tt.hour, 9, 17), "hour %d", tt.hour)
	}
}

func TestThreatTrust(t *testing.T) {
	assert.Equal(t, 0.8, threatTrust(nil))
	assert.Equal(t, 0.8, threatTrust([]threat.Intelligence{{Severity: threat.SeverityMedium}}))
	assert.Equal(t, 0.2, threatTrust([]threat.Intelligence{{Severity: threat.SeverityHigh}}))
	assert.Equal(t, 0.2, threatTrust([]threat.Intelligence{
		{Severity: threat.SeverityLow},
		{Severity: threat.SeverityCritical},
	}))
}

func TestEvaluateTime_UsesConfiguredZone(t *testing.T) {
	f := newFixture()
	f.cfg.Location = time.FixedZone("UTC-5", -5*60*60)
	svc := f.service(t).(*service)

	morning := svc.evaluateTime(time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC))
	assert.Equal(t, trust.FactorTime, morning.Name)
	assert.Equal(t, 0.8, morning.Score)

	evening := svc.evaluateTime(time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.4, evening.Score)
	assert.Contains(t, evening.Description, "outside")
}

func TestEvaluateThreat_NoAddress(t *testing.T) {
	svc := newFixture().service(t).(*service)

	f := svc.evaluateThreat(t.Context(), &trust.EvaluationRequest{UserID: "user-1"})
	require.Equal(t, trust.FactorThreat, f.Name)
	assert.Equal(t, 0.8, f.Score)
	assert.Equal(t, trust.WeightOf(trust.FactorThreat), f.Weight)
}
