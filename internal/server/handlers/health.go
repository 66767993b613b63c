package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/logger"
)

type HealthResponse struct {
	Status      string `json:"status" example:"OK"`
	Timestamp   string `json:"timestamp" example:"2025-01-28T10:00:00Z"`
	Environment string `json:"environment" example:"dev"`
	Project     string `json:"project" example:"paygate"`
}

// HandleHealth godoc
//
//	@Summary		Health (liveness) Check
//	@Description	Check if the HTTP service is alive and responding.
//	@Tags			Common
//	@Produce		json
//
//	@Success		200	{object}	HealthResponse
//
//	@Router			/health [get]
func HandleHealth(environment, project string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperr.RespondWithJSONPayload(w, http.StatusOK, HealthResponse{
			Status:      "OK",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Environment: environment,
			Project:     project,
		})
	}
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleReadiness godoc
//
//	@Summary		Readiness Check
//	@Description	Checks if the service is ready to accept traffic (provisioning store and, when configured, redis connectivity)
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	map[string]string	"status ready"
//	@Failure		503	{object}	map[string]string	"status not ready"
//	@Router			/ready [get]
func HandleReadiness(store Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.ContextRequestLogger(r.Context()).Warn("readiness check failed",
				slog.String("error", err.Error()),
			)
			apperr.RespondWithJSONPayload(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "backing service unavailable",
			})
			return
		}

		apperr.RespondWithJSONPayload(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
