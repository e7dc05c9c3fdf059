package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	domainErrors "github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseEnvelope wraps all API responses
type ResponseEnvelope struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
	Meta    ResponseMeta   `json:"meta"`
}

// ResponseMeta contains response metadata
type ResponseMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ErrorResponse provides detailed error information
type ErrorResponse struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Fields    map[string]string      `json:"fields,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type responder struct {
	version string
	logger  *zap.Logger
}

func (rs responder) meta(r *http.Request) ResponseMeta {
	return ResponseMeta{
		RequestID: RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
		Version:   rs.version,
	}
}

func (rs responder) writeSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	rs.writeJSON(w, status, ResponseEnvelope{
		Success: true,
		Data:    data,
		Meta:    rs.meta(r),
	})
}

func (rs responder) writeFailure(w http.ResponseWriter, r *http.Request, status int, data interface{}, errResp *ErrorResponse) {
	rs.writeJSON(w, status, ResponseEnvelope{
		Success: false,
		Data:    data,
		Error:   errResp,
		Meta:    rs.meta(r),
	})
}

// writeError maps err onto a status code and error body. Validator errors
// become field level messages; AppErrors keep their code; anything else is
// reported as an opaque internal error.
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = fe.Tag()
		}
		rs.writeFailure(w, r, http.StatusBadRequest, nil, &ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  fields,
		})
		return
	}

	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		status := domainErrors.GetStatusCode(err)
		if status >= http.StatusInternalServerError {
			rs.logger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("code", appErr.Code),
				zap.Error(err),
			)
		}
		rs.writeFailure(w, r, status, nil, &ErrorResponse{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Retryable: appErr.Retryable,
			Metadata:  appErr.Details,
		})
		return
	}

	rs.logger.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
	rs.writeFailure(w, r, http.StatusInternalServerError, nil, &ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	})
}

func (rs responder) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.logger.Warn("failed to encode response", zap.Error(err))
	}
}
