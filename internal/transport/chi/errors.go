package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeNotFound         ErrorCode = "not_found"
	CodeTypeNotFound     ErrorCode = "type_not_registered"
	CodeIndexNotFound    ErrorCode = "index_not_found"
	CodeNotConfigured    ErrorCode = "not_configured"
	CodeEngineError      ErrorCode = "engine_error"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrUsage, http.StatusBadRequest, CodeValidationFailed),
	sentinelHandler(domain.ErrInvalidMapping, http.StatusBadRequest, CodeValidationFailed),
	sentinelHandler(domain.ErrInvalidRecord, http.StatusBadRequest, CodeValidationFailed),
	sentinelHandler(domain.ErrNotRegistered, http.StatusNotFound, CodeTypeNotFound),
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Client errors carry the full message: it only describes the request.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range errorHandlers {
		if h(w, err) {
			s.logger.Debug("client error", zap.Error(err))
			return
		}
	}
	s.logger.Error("engine error", zap.Error(err))
	writeError(w, http.StatusBadGateway, CodeEngineError, "engine error")
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
