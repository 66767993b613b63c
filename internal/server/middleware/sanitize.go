package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/custodia-labs/paygate/internal/logger"
	"github.com/custodia-labs/paygate/internal/sanitize"
)

// Sanitize cleans the query string and the decoded body.
//
// Unsafe keys are dropped and string values are cleaned (see package sanitize).
// The cleaned body replaces the raw body so that proxied route groups forward the
// sanitised version.
func Sanitize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			query := r.URL.Query()
			dropUnsafeFormKeys(query)
			sanitize.Values(query)
			r.URL.RawQuery = query.Encode()
		}

		if body, ok := DecodedBody(r.Context()); ok {
			switch body.MediaType {
			case MediaTypeJSON:
				body.Value = sanitize.Value(body.Value)
				raw, err := json.Marshal(body.Value)
				if err != nil {
					// the value came out of a json decoder so this is not expected
					logger.ContextRequestLogger(r.Context()).Error("failed to re-encode sanitized body",
						slog.String("error", err.Error()),
					)
					break
				}
				setRequestBody(r, raw)
			case MediaTypeForm:
				dropUnsafeFormKeys(body.Form)
				sanitize.Values(body.Form)
				body.Value = NestedForm(body.Form)
				setRequestBody(r, []byte(body.Form.Encode()))
			}
		}

		next.ServeHTTP(w, r)
	})
}

// dropUnsafeFormKeys removes fields with an unsafe segment anywhere in a bracketed key.
func dropUnsafeFormKeys(form url.Values) {
	for k := range form {
		for _, segment := range splitFormKey(k) {
			if sanitize.UnsafeKey(segment) {
				delete(form, k)
				break
			}
		}
	}
}
