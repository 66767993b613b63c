package apperr

// responses.go provides helper functions for sending HTTP responses from handlers and middleware.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/paygate/internal/logger"
	"github.com/custodia-labs/paygate/internal/metrics"
	"github.com/custodia-labs/paygate/internal/sanitize"
)

// GenericInternalMessage replaces internal error details in the prod profile.
const GenericInternalMessage = "Internal server error"

// ErrorResponse is the JSON envelope returned for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Route not found"`
}

// Responder writes error envelopes. The zero value behaves as a non-production responder.
type Responder struct {
	// Production hides the detail of internal errors from clients.
	Production bool
}

// NewResponder returns a responder for the given runtime profile.
func NewResponder(environment string) *Responder {
	return &Responder{Production: environment == "prod"}
}

// Respond maps err to an error envelope and sends it.
//
// It logs the full error details server-side (kind, cause chain and request id)
// and sends a sanitized message to the client.
func (rs *Responder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = NewInternalError("unknown error")
	}

	kind := KindOf(err)
	statusCode := kind.StatusCode()
	message := rs.clientMessage(err, kind)

	requestID := middleware.GetReqID(r.Context())

	attrs := []any{
		slog.String("error", sanitize.RedactSecrets(err.Error())),
		slog.String("error_kind", kind.String()),
		slog.Int("status_code", statusCode),
		slog.String("request_id", requestID),
	}
	if chain := CauseChain(err); len(chain) > 1 {
		attrs = append(attrs, slog.Any("cause_chain", redactAll(chain)))
	}

	reqLogger := logger.ContextRequestLogger(r.Context())
	if statusCode >= http.StatusInternalServerError {
		reqLogger.Error("Request failed", attrs...)
	} else {
		reqLogger.Warn("Request rejected", attrs...)
	}

	metrics.ErrorResponses.WithLabelValues(kind.String()).Inc()

	if requestID != "" {
		w.Header().Set(middleware.RequestIDHeader, requestID)
	}
	RespondWithJSONPayload(w, statusCode, ErrorResponse{
		Success: false,
		Message: message,
	})
}

// HandleFunc adapts an error-returning handler so that returned errors reach the responder.
func (rs *Responder) HandleFunc(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			rs.Respond(w, r, err)
		}
	}
}

// HandlerFunc is an http handler that can fail.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (rs *Responder) clientMessage(err error, kind Kind) string {
	if kind != KindInternal {
		var appErr *Error
		if errors.As(err, &appErr) {
			return appErr.message
		}
		return err.Error()
	}
	if rs.Production {
		return GenericInternalMessage
	}
	return err.Error()
}

func redactAll(chain []string) []string {
	out := make([]string, len(chain))
	for i, c := range chain {
		out[i] = sanitize.RedactSecrets(c)
	}
	return out
}

// RespondWithJSONPayload sends a JSON response with the given status code
func RespondWithJSONPayload(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// If encoding fails, log it but don't try to send another response
			// (headers are already written)
			slog.Error("Failed to encode JSON response",
				slog.String("error", err.Error()),
			)
		}
	}
}

// PanicError converts a recovered panic value into an internal error whose message
// is the panic value itself.
func PanicError(rec any) error {
	if err, ok := rec.(error); ok {
		return WrapInternalError(err, err.Error())
	}
	return NewInternalError(fmt.Sprint(rec))
}
