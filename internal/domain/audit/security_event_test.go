package audit

import (
	"testing"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecurityEvent(t *testing.T) {
	event, err := NewSecurityEvent(EventAccessDecision, "access allowed", "user-1")
	require.NoError(t, err)

	event.WithTenant("tenant-1").WithDetail("resource", "reports")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventAccessDecision, event.Type)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "tenant-1", event.TenantID)
	assert.Equal(t, "reports", event.Details["resource"])
	assert.False(t, event.Timestamp.IsZero())
}

func TestNewSecurityEvent_Validation(t *testing.T) {
	_, err := NewSecurityEvent(EventType("LOGIN"), "x", "user-1")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = NewSecurityEvent(EventDeviceValidation, "", "user-1")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	// system events carry no user
	_, err = NewSecurityEvent(EventComplianceChecked, "tenant checked", "")
	assert.NoError(t, err)
}
