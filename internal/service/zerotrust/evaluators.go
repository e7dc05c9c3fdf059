package zerotrust

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

func deviceTrust(registered, healthy bool) float64 {
	score := DeviceUnregisteredScore
	if registered {
		score = DeviceRegisteredScore
	}
	if healthy {
		score += DeviceHealthyBonus
	}
	return trust.Clamp(score)
}

func locationTrust(known bool, reputation float64) float64 {
	score := LocationUnknownScore
	if known {
		score = LocationKnownScore
	}
	return trust.Clamp(score + ReputationWeight*trust.Clamp(reputation))
}

// behavioralTrust is neutral without a baseline. With one it starts at
// BehaviorBaselineScore and drops with the mean anomaly severity.
func behavioralTrust(hasBaseline bool, deviation float64) float64 {
	if !hasBaseline {
		return BehaviorNeutralScore
	}
	score := BehaviorBaselineScore - BehaviorDeviationPenalty*deviation
	if score > BehaviorBaselineScore {
		score = BehaviorBaselineScore
	}
	return trust.Clamp(score)
}

// temporalTrust treats both boundary hours as business hours.
func temporalTrust(hour, start, end int) float64 {
	if hour >= start && hour <= end {
		return BusinessHoursScore
	}
	return OffHoursScore
}

func threatTrust(threats []threat.Intelligence) float64 {
	if threat.AnyAtLeast(threats, threat.SeverityHigh) {
		return ThreatPresentScore
	}
	return ThreatAbsentScore
}

func (s *service) deviceStatus(ctx context.Context, deviceID, userID string) (registered, healthy bool) {
	fields := []zap.Field{zap.String("user_id", userID), zap.String("device_id", deviceID)}

	registered = lookup(ctx, s, collaboratorDeviceRegistry, false, func(ctx context.Context) (bool, error) {
		return s.devices.IsDeviceRegistered(ctx, deviceID, userID)
	}, fields...)
	healthy = lookup(ctx, s, collaboratorDeviceRegistry, false, func(ctx context.Context) (bool, error) {
		return s.devices.CheckDeviceHealth(ctx, deviceID)
	}, fields...)
	return registered, healthy
}

func (s *service) evaluateDevice(ctx context.Context, req *trust.EvaluationRequest) trust.Factor {
	registered, healthy := false, false
	if req.DeviceID != "" {
		registered, healthy = s.deviceStatus(ctx, req.DeviceID, req.UserID)
	}

	return trust.NewFactor(trust.FactorDevice, deviceTrust(registered, healthy),
		fmt.Sprintf("device registered=%t healthy=%t", registered, healthy))
}

func (s *service) evaluateLocation(ctx context.Context, req *trust.EvaluationRequest, location string) trust.Factor {
	fields := []zap.Field{zap.String("user_id", req.UserID), zap.String("ip_address", req.IPAddress)}

	known := false
	if location != "" {
		known = lookup(ctx, s, collaboratorLocationHistory, false, func(ctx context.Context) (bool, error) {
			return s.locations.IsKnownLocation(ctx, location, req.UserID)
		}, fields...)
	}

	reputation := 0.0
	if req.IPAddress != "" {
		reputation = lookup(ctx, s, collaboratorThreatIntel, 0.0, func(ctx context.Context) (float64, error) {
			return s.threats.GetIPReputationScore(ctx, req.IPAddress)
		}, fields...)
	}

	return trust.NewFactor(trust.FactorLocation, locationTrust(known, reputation),
		fmt.Sprintf("location %q known=%t, ip reputation %.2f", location, known, trust.Clamp(reputation)))
}

func (s *service) evaluateTime(requestTime time.Time) trust.Factor {
	hour := requestTime.In(s.cfg.Location).Hour()
	score := temporalTrust(hour, s.cfg.BusinessHoursStart, s.cfg.BusinessHoursEnd)

	window := "outside"
	if score == BusinessHoursScore {
		window = "within"
	}
	return trust.NewFactor(trust.FactorTime, score,
		fmt.Sprintf("request hour %02d %s business hours %02d-%02d", hour, window, s.cfg.BusinessHoursStart, s.cfg.BusinessHoursEnd))
}

// evaluateThreat assumes a hostile address when threat intelligence cannot be
// reached. Requests without an address have nothing to look up.
func (s *service) evaluateThreat(ctx context.Context, req *trust.EvaluationRequest) trust.Factor {
	if req.IPAddress == "" {
		return trust.NewFactor(trust.FactorThreat, ThreatAbsentScore, "no ip address to check")
	}

	threats, ok := tryLookup(ctx, s, collaboratorThreatIntel, func(ctx context.Context) ([]threat.Intelligence, error) {
		return s.threats.GetThreatIntelligence(ctx, req.IPAddress)
	}, zap.String("user_id", req.UserID), zap.String("ip_address", req.IPAddress))
	if !ok {
		return trust.NewFactor(trust.FactorThreat, ThreatPresentScore, "threat intelligence unavailable")
	}

	desc := "no threats reported"
	if sev, found := threat.MaxSeverity(threats); found {
		desc = fmt.Sprintf("%d threats reported, highest severity %s", len(threats), sev)
	}
	return trust.NewFactor(trust.FactorThreat, threatTrust(threats), desc)
}
