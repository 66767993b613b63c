package middleware

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/custodia-labs/paygate/internal/apperr"
)

const (
	MediaTypeJSON      = "application/json"
	MediaTypeForm      = "application/x-www-form-urlencoded"
	MediaTypeMultipart = "multipart/form-data"
)

var acceptedMediaTypes = map[string]struct{}{
	MediaTypeJSON:      {},
	MediaTypeForm:      {},
	MediaTypeMultipart: {},
}

// ValidateContentType rejects POST, PUT and PATCH requests that carry a body with an
// unsupported or missing Content-Type.
func ValidateContentType(responder *apperr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if _, ok := acceptedMediaTypes[mediaType]; err != nil || !ok {
				responder.Respond(w, r, apperr.NewUnsupportedMediaTypeError(
					fmt.Sprintf("Unsupported Content-Type %q", contentType),
				))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hasBody reports whether the request declares or streams a body.
func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	return r.ContentLength != 0
}
