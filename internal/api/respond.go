package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/iztleu/scrum-master-bot/internal/domain"
)

type errorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Fields  []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{Error: code, Message: message})
}

// respondServiceError maps the error taxonomy onto HTTP statuses:
// validation 400, logic conflict 409, timeout 504, anything else 500.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		fields := make([]fieldError, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fields = append(fields, fieldError{Field: f.Field, Code: f.Code})
		}
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation_failed",
			Fields: fields,
		})
		return
	}

	var logicErr *domain.LogicError
	if errors.As(err, &logicErr) {
		s.respondJSON(w, http.StatusConflict, errorResponse{
			Error:   logicErr.Code,
			Message: logicErr.Message,
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.respondError(w, http.StatusGatewayTimeout, "timeout", "operation timed out")
		return
	}

	s.logger.Error("Request failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// decodeJSON reads the request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}
