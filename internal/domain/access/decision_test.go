package access

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

func TestDecide_ByLevel(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name        string
		level       trust.Level
		resource    string
		wantType    DecisionType
		wantAllowed bool
		wantActions []string
	}{
		{"very high trust allows", trust.LevelVeryHigh, "tickets", DecisionAllow, true, []string{}},
		{"high trust allows", trust.LevelHigh, "tickets", DecisionAllow, true, []string{}},
		{"medium trust monitors", trust.LevelMedium, "tickets", DecisionMonitor, true, []string{}},
		{"low trust challenges", trust.LevelLow, "tickets", DecisionChallenge, false,
			[]string{ActionMFAChallenge, ActionDeviceVerification}},
		{"very low trust denies", trust.LevelVeryLow, "tickets", DecisionDeny, false, []string{}},
		{"high trust on admin steps up", trust.LevelHigh, "admin-panel", DecisionStepUp, true,
			[]string{ActionStepUpAuthentication}},
		{"very high trust on settings steps up", trust.LevelVeryHigh, "/Org/SETTINGS", DecisionStepUp, true,
			[]string{ActionStepUpAuthentication}},
		{"medium trust on admin is not escalated", trust.LevelMedium, "admin-panel", DecisionMonitor, true, []string{}},
		{"low trust on financial is not escalated", trust.LevelLow, "financial-report", DecisionChallenge, false,
			[]string{ActionMFAChallenge, ActionDeviceVerification}},
		{"very low trust on users denies", trust.LevelVeryLow, "users", DecisionDeny, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.level, tt.resource, classifier)

			assert.Equal(t, tt.wantType, d.Type)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantActions, d.RequiredActions)
			assert.Equal(t, 30*time.Minute, d.ValidFor)
		})
	}
}

func TestDecide_MonitorCondition(t *testing.T) {
	d := Decide(trust.LevelMedium, "tickets", NewClassifier(nil))
	assert.Equal(t, true, d.Conditions[ConditionRequireMonitoring])

	allow := Decide(trust.LevelHigh, "tickets", NewClassifier(nil))
	assert.NotContains(t, allow.Conditions, ConditionRequireMonitoring)
}

func TestDecide_Deterministic(t *testing.T) {
	classifier := NewClassifier(nil)
	resources := []string{"tickets", "admin-panel", "sensitive-export", "queue"}

	for l := trust.LevelVeryLow; l <= trust.LevelVeryHigh; l++ {
		for _, r := range resources {
			first := Decide(l, r, classifier)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, Decide(l, r, classifier))
			}
		}
	}
}

func TestDecide_AdminAlwaysStepsUpWhenAllowed(t *testing.T) {
	classifier := NewClassifier(nil)
	for _, resource := range []string{"admin", "ADMIN", "SuperAdminConsole", "x-admin-y"} {
		for _, level := range []trust.Level{trust.LevelHigh, trust.LevelVeryHigh} {
			d := Decide(level, resource, classifier)
			assert.Equal(t, DecisionStepUp, d.Type, resource)
			assert.True(t, d.HasAction(ActionStepUpAuthentication), resource)
		}
	}
}

func TestClassifier_CustomKeywords(t *testing.T) {
	c := NewClassifier([]string{" Billing ", ""})

	assert.Equal(t, SensitivityHighRisk, c.Classify("billing/invoices"))
	assert.Equal(t, SensitivityStandard, c.Classify("admin"))
	assert.Equal(t, "high_risk", c.Classify("BILLING").String())

	var zero Classifier
	assert.True(t, zero.IsHighRisk("admin"))
}

func TestRequest_Validate(t *testing.T) {
	assert.Error(t, Request{Resource: "x"}.Validate())
	assert.Error(t, Request{UserID: "u"}.Validate())
	assert.NoError(t, Request{UserID: "u", Resource: "x"}.Validate())
}

func TestDecisionType_JSON(t *testing.T) {
	data, err := json.Marshal(Decide(trust.LevelHigh, "admin", NewClassifier(nil)))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"decision_type":"StepUp"`)

	var d DecisionType
	require.NoError(t, d.UnmarshalText([]byte("Challenge")))
	assert.Equal(t, DecisionChallenge, d)
	assert.Error(t, d.UnmarshalText([]byte("Maybe")))
}
