package zerotrust

import "time"

// Evaluator scores
const (
	// DeviceRegisteredScore and DeviceUnregisteredScore are the base device scores
	DeviceRegisteredScore   = 0.7
	DeviceUnregisteredScore = 0.3
	// DeviceHealthyBonus is added when the device passes its health check
	DeviceHealthyBonus = 0.3

	// LocationKnownScore and LocationUnknownScore are the base location scores
	LocationKnownScore   = 0.6
	LocationUnknownScore = 0.2
	// ReputationWeight scales the IP reputation contribution
	ReputationWeight = 0.4

	// BehaviorNeutralScore is used before a baseline exists
	BehaviorNeutralScore = 0.5
	// BehaviorBaselineScore is the score of behavior that matches its baseline
	BehaviorBaselineScore = 0.8
	// BehaviorDeviationPenalty is subtracted per unit of baseline deviation
	BehaviorDeviationPenalty = 0.3

	// BusinessHoursScore and OffHoursScore are the temporal scores
	BusinessHoursScore = 0.8
	OffHoursScore      = 0.4

	// ThreatPresentScore applies when a High or Critical threat is reported
	ThreatPresentScore = 0.2
	// ThreatAbsentScore applies otherwise
	ThreatAbsentScore = 0.8
)

// Defaults
const (
	DefaultBusinessHoursStart  = 9
	DefaultBusinessHoursEnd    = 17
	DefaultCollaboratorTimeout = 2 * time.Second
	DefaultBehaviorWindow      = time.Hour
	DefaultRiskWindow          = 24 * time.Hour
	DefaultBaselineMaxAge      = 7 * 24 * time.Hour
)

// Collaborator names used in logs and degradation metrics
const (
	collaboratorDeviceRegistry  = "device_registry"
	collaboratorLocationHistory = "location_history"
	collaboratorThreatIntel     = "threat_intel"
	collaboratorBehaviorHistory = "behavior_history"
	collaboratorBaselineStore   = "baseline_store"
	collaboratorLocationResolve = "location_resolver"
	collaboratorAudit           = "audit_logger"
	collaboratorSessionStore    = "session_store"
	collaboratorCompliance      = "compliance_checker"
)

const monitoredSessionNote = "session under continuous monitoring"

const tracerName = "github.com/davidleathers/zero-trust-access-engine/internal/service/zerotrust"
