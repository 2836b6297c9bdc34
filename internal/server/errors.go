package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/lazypower/counsel/internal/learning"
	"github.com/lazypower/counsel/internal/store"
	"go.uber.org/zap"
)

// statusFor maps the error taxonomy onto HTTP status classes.
func statusFor(err error) int {
	var verr *learning.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := map[string]string{"error": err.Error()}

	var verr *learning.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeJSON(w, status, body)
}

func badRequest(field, msg string) error {
	return &learning.ValidationError{Field: field, Message: msg}
}
