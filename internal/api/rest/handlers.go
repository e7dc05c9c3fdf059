package rest

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/access"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/device"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
	"github.com/davidleathers/zero-trust-access-engine/internal/service/zerotrust"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	maxBodySize           = 1 << 20
	defaultBehaviorWindow = time.Hour
)

// StartMonitoringRequest opens a continuous monitoring session
type StartMonitoringRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// MonitoringResponse reports the outcome of a start or stop call
type MonitoringResponse struct {
	SessionID string `json:"session_id"`
	Started   *bool  `json:"started,omitempty"`
	Stopped   *bool  `json:"stopped,omitempty"`
}

// DeviceValidationResponse is returned by the device validation endpoint
type DeviceValidationResponse struct {
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
	Valid    bool   `json:"valid"`
}

// Handlers serves the access engine over HTTP
type Handlers struct {
	svc       zerotrust.Service
	validator *validator.Validate
	responder
}

// NewHandlers creates handlers backed by svc
func NewHandlers(svc zerotrust.Service, logger *zap.Logger, version string) *Handlers {
	return &Handlers{
		svc:       svc,
		validator: validator.New(),
		responder: responder{version: version, logger: logger},
	}
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_JSON", "request body is not valid JSON"))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.writeError(w, r, err)
		return false
	}
	return true
}

func (h *Handlers) EvaluateTrust(w http.ResponseWriter, r *http.Request) {
	var req trust.EvaluationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = clientIP(r)
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	score, err := h.svc.EvaluateTrustScore(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, score)
}

func (h *Handlers) GenerateFingerprint(w http.ResponseWriter, r *http.Request) {
	var req device.FingerprintRequest
	if !h.decode(w, r, &req) {
		return
	}

	fp, err := h.svc.GenerateDeviceFingerprint(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, fp)
}

func (h *Handlers) DecideAccess(w http.ResponseWriter, r *http.Request) {
	var req access.Request
	if !h.decode(w, r, &req) {
		return
	}

	decision, err := h.svc.MakeAccessDecision(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, decision)
}

func (h *Handlers) ValidateDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, r, errors.NewValidationError("MISSING_USER_ID", "user_id query parameter is required"))
		return
	}

	valid, err := h.svc.ValidateDevice(r.Context(), deviceID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, DeviceValidationResponse{
		DeviceID: deviceID,
		UserID:   userID,
		Valid:    valid,
	})
}

func (h *Handlers) AnalyzeRisks(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	risks, err := h.svc.AnalyzeSecurityRisks(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"risks":   risks,
	})
}

func (h *Handlers) AnalyzeBehavior(w http.ResponseWriter, r *http.Request) {
	window := defaultBehaviorWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, r, errors.NewValidationError("INVALID_WINDOW", "window must be a positive duration such as 30m or 1h"))
			return
		}
		window = parsed
	}

	analysis, err := h.svc.AnalyzeBehaviorPatterns(r.Context(), r.PathValue("userId"), window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, analysis)
}

func (h *Handlers) StartMonitoring(w http.ResponseWriter, r *http.Request) {
	var req StartMonitoringRequest
	if !h.decode(w, r, &req) {
		return
	}

	started := h.svc.StartContinuousMonitoring(r.Context(), req.UserID, req.SessionID)
	resp := MonitoringResponse{SessionID: req.SessionID, Started: &started}
	if !started {
		h.writeFailure(w, r, http.StatusServiceUnavailable, resp, &ErrorResponse{
			Code:      "MONITORING_UNAVAILABLE",
			Message:   "monitoring session could not be started",
			Retryable: true,
		})
		return
	}
	h.writeSuccess(w, r, http.StatusCreated, resp)
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetMonitoringSession(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, session)
}

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListActiveSessions(r.Context(), r.PathValue("userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, sessions)
}

func (h *Handlers) StopMonitoring(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	stopped := h.svc.StopContinuousMonitoring(r.Context(), sessionID)
	resp := MonitoringResponse{SessionID: sessionID, Stopped: &stopped}
	if !stopped {
		h.writeFailure(w, r, http.StatusNotFound, resp, &ErrorResponse{
			Code:    "RESOURCE_NOT_FOUND",
			Message: "monitoring session not found",
		})
		return
	}
	h.writeSuccess(w, r, http.StatusOK, resp)
}

func (h *Handlers) ThreatIntelligence(w http.ResponseWriter, r *http.Request) {
	ip := r.PathValue("ip")
	if net.ParseIP(ip) == nil {
		h.writeError(w, r, errors.NewValidationError("INVALID_IP", "ip must be an IPv4 or IPv6 address"))
		return
	}

	threats, err := h.svc.GetThreatIntelligence(r.Context(), ip)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, map[string]interface{}{
		"ip":      ip,
		"threats": threats,
	})
}

func (h *Handlers) ComplianceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.CheckComplianceStatus(r.Context(), r.PathValue("tenantId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSuccess(w, r, http.StatusOK, status)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}
