package zerotrust

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/device"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

// GenerateDeviceFingerprint hashes the presented device attributes and looks
// the hash up in the device registry. Registering new fingerprints is left to
// the registry.
func (s *service) GenerateDeviceFingerprint(ctx context.Context, req *device.FingerprintRequest) (*device.Fingerprint, error) {
	if req == nil {
		return nil, errors.NewValidationError("MISSING_REQUEST", "fingerprint request is required")
	}

	hash := req.Hash()
	fields := []zap.Field{zap.String("user_id", req.UserID), zap.String("fingerprint_hash", hash)}

	known := lookup(ctx, s, collaboratorDeviceRegistry, false, func(ctx context.Context) (bool, error) {
		return s.devices.IsKnownFingerprint(ctx, hash)
	}, fields...)
	similarity := lookup(ctx, s, collaboratorDeviceRegistry, 0.0, func(ctx context.Context) (float64, error) {
		return s.devices.SimilarityScore(ctx, hash)
	}, fields...)

	return &device.Fingerprint{
		ID:              uuid.NewString(),
		Hash:            hash,
		CreatedAt:       s.now(),
		IsKnownDevice:   known,
		SimilarityScore: trust.Clamp(similarity),
		Attributes:      req.Attributes(),
	}, nil
}
