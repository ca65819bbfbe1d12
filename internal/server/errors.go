package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/career-code/internal/jobboard"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// ErrorResponse is the JSON body written for every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		forbidden  *jobboard.ErrForbidden
		notFound   *jobboard.ErrNotFound
		invalidID  *jobboard.ErrInvalidIdentifier
		validation *jobboard.ErrValidation
		integrity  *jobboard.ErrDataIntegrity
		upstream   *jobboard.ErrUpstreamUnavailable
	)
	switch {
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidID), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &integrity):
		return http.StatusInternalServerError
	case errors.As(err, &upstream):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorCode returns the stable machine-readable code for an error
func errorCode(err error) string {
	var (
		forbidden  *jobboard.ErrForbidden
		notFound   *jobboard.ErrNotFound
		invalidID  *jobboard.ErrInvalidIdentifier
		validation *jobboard.ErrValidation
		integrity  *jobboard.ErrDataIntegrity
		upstream   *jobboard.ErrUpstreamUnavailable
	)
	switch {
	case errors.As(err, &forbidden):
		return "forbidden"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &invalidID):
		return "invalid_identifier"
	case errors.As(err, &validation):
		return "validation_error"
	case errors.As(err, &integrity):
		return "data_integrity"
	case errors.As(err, &upstream):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// writeError maps a service error to its status, logs it at a level that
// matches its severity and records the related metrics.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	code := errorCode(err)
	logger := hlog.FromRequest(r)

	var level zerolog.Level
	switch status {
	case http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
		level = zerolog.DebugLevel
	default:
		level = zerolog.ErrorLevel
	}
	logger.WithLevel(level).Err(err).Str("code", code).Int("status", status).Msg("request failed")

	body := ErrorResponse{Error: code, Message: err.Error()}

	var forbidden *jobboard.ErrForbidden
	var validation *jobboard.ErrValidation
	switch {
	case errors.As(err, &forbidden):
		s.metrics.authzDenied.WithLabelValues(routeLabel(r.URL.Path), string(forbidden.Reason)).Inc()
		body.Message = "you may only access your own resources"
	case errors.As(err, &validation):
		body.Field = validation.Field
	case code == "data_integrity":
		s.metrics.dataIntegrity.Inc()
	case status == http.StatusServiceUnavailable:
		body.Message = "the data store is temporarily unavailable"
	case code == "internal":
		body.Message = "internal server error"
	}

	s.jsonResponse(w, status, body)
}
