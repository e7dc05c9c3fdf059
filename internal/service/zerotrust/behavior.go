package zerotrust

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

// evaluateBehavior scores the user's current behavior against their baseline.
// The first evaluation for a user builds the baseline and scores neutral.
func (s *service) evaluateBehavior(ctx context.Context, userID string) trust.Factor {
	neutral := func(desc string) trust.Factor {
		return trust.NewFactor(trust.FactorBehavioral, BehaviorNeutralScore, desc)
	}

	baseline, found, err := s.loadBaseline(ctx, userID)
	if err != nil {
		s.degraded(collaboratorBaselineStore, err, zap.String("user_id", userID))
		return neutral("behavior baseline unavailable")
	}

	if !found {
		if _, err := s.buildBaseline(ctx, userID, nil); err != nil {
			s.degraded(collaboratorBehaviorHistory, err, zap.String("user_id", userID))
		}
		return neutral("no behavior baseline yet")
	}

	if baseline.IsStale(s.now(), s.cfg.BaselineMaxAge) {
		if _, err := s.buildBaseline(ctx, userID, baseline); err != nil {
			s.degraded(collaboratorBehaviorHistory, err, zap.String("user_id", userID))
		}
	}

	analysis, err := s.analyze(ctx, userID, baseline, s.cfg.BehaviorWindow)
	if err != nil {
		s.degraded(collaboratorBehaviorHistory, err, zap.String("user_id", userID))
		return neutral("current behavior metrics unavailable")
	}

	return trust.NewFactor(trust.FactorBehavioral, behavioralTrust(true, analysis.BaselineDeviation),
		fmt.Sprintf("%d behavior anomalies, baseline deviation %.2f", len(analysis.Anomalies), analysis.BaselineDeviation))
}

func (s *service) loadBaseline(ctx context.Context, userID string) (*behavior.Baseline, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	defer cancel()
	return s.baselines.Get(cctx, userID)
}

// buildBaseline summarizes the user's history and stores the result.
// Concurrent builds for one user share a single history fetch.
func (s *service) buildBaseline(ctx context.Context, userID string, previous *behavior.Baseline) (*behavior.Baseline, error) {
	v, err, _ := s.baselineFlight.Do(userID, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
		defer cancel()

		history, err := s.behavior.GetHistoricalMetrics(cctx, userID)
		if err != nil {
			return nil, fmt.Errorf("fetching behavior history: %w", err)
		}

		var baseline *behavior.Baseline
		if previous != nil {
			baseline = previous.Refreshed(history, s.now())
		} else {
			baseline = behavior.BuildBaseline(userID, history, s.now())
		}

		if err := s.baselines.Put(cctx, baseline); err != nil {
			return nil, fmt.Errorf("storing behavior baseline: %w", err)
		}

		s.metrics.RecordBaselineBuild(previous != nil)
		s.logger.Info("behavior baseline built",
			zap.String("user_id", userID),
			zap.Bool("refresh", previous != nil),
			zap.Int("samples", baseline.SampleCount),
			zap.Int("metrics", len(baseline.Metrics)))

		return baseline, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*behavior.Baseline), nil
}

// analyze compares current metrics over window with baseline and audits any anomalies.
func (s *service) analyze(ctx context.Context, userID string, baseline *behavior.Baseline, window time.Duration) (behavior.Analysis, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	current, err := s.behavior.GetCurrentMetrics(cctx, userID, window)
	cancel()
	if err != nil {
		return behavior.Analysis{}, fmt.Errorf("fetching current behavior metrics: %w", err)
	}

	analysis := behavior.Analyze(userID, baseline, current, window, s.cfg.AnomalyThreshold, s.now())

	if analysis.HasAnomalies() {
		types := make([]string, len(analysis.Anomalies))
		for i, a := range analysis.Anomalies {
			types[i] = a.Type
		}

		s.metrics.RecordAnomalies(len(analysis.Anomalies))
		s.logEvent(ctx, audit.EventBehaviorAnomaly,
			fmt.Sprintf("%d behavior anomalies detected", len(analysis.Anomalies)),
			userID, map[string]interface{}{
				"anomaly_types":      types,
				"baseline_deviation": analysis.BaselineDeviation,
				"window":             window.String(),
			})
	}

	return analysis, nil
}

// AnalyzeBehaviorPatterns compares the user's behavior over window with their
// baseline, building the baseline first if the user has none.
func (s *service) AnalyzeBehaviorPatterns(ctx context.Context, userID string, window time.Duration) (*behavior.Analysis, error) {
	if userID == "" {
		return nil, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}
	if window <= 0 {
		window = s.cfg.BehaviorWindow
	}

	baseline, found, err := s.loadBaseline(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load behavior baseline").WithCause(err)
	}

	switch {
	case !found:
		baseline, err = s.buildBaseline(ctx, userID, nil)
		if err != nil {
			return nil, errors.NewExternalError(collaboratorBehaviorHistory, "failed to build behavior baseline").WithCause(err)
		}
	case baseline.IsStale(s.now(), s.cfg.BaselineMaxAge):
		if refreshed, err := s.buildBaseline(ctx, userID, baseline); err != nil {
			s.degraded(collaboratorBehaviorHistory, err, zap.String("user_id", userID))
		} else {
			baseline = refreshed
		}
	}

	analysis, err := s.analyze(ctx, userID, baseline, window)
	if err != nil {
		return nil, errors.NewExternalError(collaboratorBehaviorHistory, "failed to analyze behavior").WithCause(err)
	}

	return &analysis, nil
}

// AnalyzeSecurityRisks turns the behavior anomalies of the risk window into
// security risks, most severe first.
func (s *service) AnalyzeSecurityRisks(ctx context.Context, userID string) ([]threat.Risk, error) {
	analysis, err := s.AnalyzeBehaviorPatterns(ctx, userID, s.cfg.RiskWindow)
	if err != nil {
		return nil, err
	}

	risks := make([]threat.Risk, 0, len(analysis.Anomalies))
	for _, a := range analysis.Anomalies {
		risks = append(risks, threat.Risk{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        threat.RiskTypeBehaviorAnomaly,
			Severity:    threat.SeverityForDeviation(a.Severity),
			Description: a.Description,
			Mitigation:  "Review recent account activity and require re-authentication",
			DetectedAt:  a.DetectedAt,
			Details:     a.Details,
		})
	}

	threat.SortRisks(risks)
	return risks, nil
}
