package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/custodia-labs/paygate/internal/apperr"
)

const (
	// maxFormDepth bounds the nesting of bracketed form keys.
	// Deeper brackets are kept as a literal key segment.
	maxFormDepth = 5

	// maxFormFields bounds the number of form fields decoded from one body.
	maxFormFields = 1000
)

// Body is the decoded request body made available to handlers.
type Body struct {
	MediaType string

	// Value holds the decoded JSON value, or the nested map built from a form body.
	Value any

	// Form holds the flat form fields. It is nil for JSON bodies.
	Form url.Values
}

type bodyContextKey struct{}

// DecodedBody returns the body decoded by DecodeBody, if any.
func DecodedBody(ctx context.Context) (*Body, bool) {
	b, ok := ctx.Value(bodyContextKey{}).(*Body)
	return b, ok
}

// DecodeBody parses JSON and url-encoded bodies and stores the result in the request context.
//
// The raw bytes are put back on the request so that proxied route groups still forward the body.
// Multipart and other bodies pass through untouched. Malformed bodies get a 400, bodies cut short
// by RequestSizeLimit a 413.
func DecodeBody(responder *apperr.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if mediaType != MediaTypeJSON && mediaType != MediaTypeForm {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				var maxBytesErr *http.MaxBytesError
				if errors.As(err, &maxBytesErr) {
					responder.Respond(w, r, apperr.NewRequestTooLargeError(
						fmt.Sprintf("Request body exceeds maximum allowed size (%d bytes)", maxBytesErr.Limit),
					))
					return
				}
				responder.Respond(w, r, apperr.WrapValidationError(err, "Failed to read request body"))
				return
			}

			body := &Body{MediaType: mediaType}
			switch mediaType {
			case MediaTypeJSON:
				body.Value, err = decodeJSON(raw)
			case MediaTypeForm:
				body.Form, body.Value, err = decodeForm(raw)
			}
			if err != nil {
				responder.Respond(w, r, err)
				return
			}

			setRequestBody(r, raw)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyContextKey{}, body)))
		})
	}
}

func decodeJSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperr.WrapValidationError(err, "Malformed JSON in request body")
	}
	if dec.More() {
		return nil, apperr.NewValidationError("Malformed JSON in request body")
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	default:
		return nil, apperr.NewValidationError("JSON request body must be an object or an array")
	}
}

func decodeForm(raw []byte) (url.Values, map[string]any, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, nil, apperr.WrapValidationError(err, "Malformed form data in request body")
	}
	if len(values) > maxFormFields {
		return nil, nil, apperr.NewValidationError(
			fmt.Sprintf("Form body has too many fields (maximum %d)", maxFormFields),
		)
	}
	return values, NestedForm(values), nil
}

// NestedForm expands bracketed keys into nested maps and lists:
// a[b][c]=v becomes {"a":{"b":{"c":"v"}}} and a[]=1&a[]=2 becomes {"a":["1","2"]}.
// A repeated plain key becomes a list.
func NestedForm(values url.Values) map[string]any {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any, len(values))
	for _, k := range keys {
		path := splitFormKey(k)
		for _, v := range values[k] {
			setFormValue(root, path, v)
		}
	}
	return root
}

func splitFormKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}

	parts := []string{key[:open]}
	rest := key[open:]
	for rest != "" && len(parts) <= maxFormDepth {
		if rest[0] != '[' {
			break
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func setFormValue(node map[string]any, path []string, value string) {
	key := path[0]
	if len(path) == 1 {
		node[key] = appendFormValue(node[key], value)
		return
	}

	if path[1] == "" {
		list, _ := node[key].([]any)
		if len(path) == 2 {
			node[key] = append(list, value)
			return
		}
		child := make(map[string]any)
		node[key] = append(list, child)
		setFormValue(child, path[2:], value)
		return
	}

	child, ok := node[key].(map[string]any)
	if !ok {
		child = make(map[string]any)
		node[key] = child
	}
	setFormValue(child, path[1:], value)
}

func appendFormValue(existing any, value string) any {
	switch v := existing.(type) {
	case string:
		return []any{v, value}
	case []any:
		return append(v, value)
	default:
		return value
	}
}

func setRequestBody(r *http.Request, raw []byte) {
	r.Body = io.NopCloser(bytes.NewReader(raw))
	r.ContentLength = int64(len(raw))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}
}
