package handlers

import (
	"net/http"

	"github.com/custodia-labs/paygate/internal/apperr"
)

// APIInfo is the static descriptor served on GET /api.
type APIInfo struct {
	Name        string            `json:"name" example:"paygate"`
	Version     string            `json:"version" example:"1.0.0"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

// HandleAPIInfo godoc
//
//	@Summary		API descriptor
//	@Description	Returns the project name, version and the mounted route groups.
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	APIInfo
//	@Router			/api [get]
func HandleAPIInfo(info APIInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperr.RespondWithJSONPayload(w, http.StatusOK, info)
	}
}

// RouteNotFoundMessage is sent for paths that match no route.
const RouteNotFoundMessage = "Route not found"

// HandleNotFound sends the 404 envelope.
func HandleNotFound(responder *apperr.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder.Respond(w, r, apperr.NewNotFoundError(RouteNotFoundMessage))
	}
}
