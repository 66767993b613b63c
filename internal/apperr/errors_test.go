package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"testing"
)

func TestKindStatusCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInternal, http.StatusInternalServerError},
		{KindValidation, http.StatusBadRequest},
		{KindCORS, http.StatusForbidden},
		{KindRateLimit, http.StatusTooManyRequests},
		{KindRequestTooLarge, http.StatusRequestEntityTooLarge},
		{KindUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{KindNotFound, http.StatusNotFound},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindBadGateway, http.StatusBadGateway},
		{Kind(99), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.StatusCode(); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewRateLimitError("slow down"))
	if got := KindOf(wrapped); got != KindRateLimit {
		t.Errorf("got %s, want rate_limit", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("got %s, want internal", got)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapBadGatewayError(cause, "payments upstream failed")

	if got, want := err.Error(), "payments upstream failed: connection refused"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable with errors.Is")
	}
}

func TestCauseChain(t *testing.T) {
	root := errors.New("dial tcp: timeout")
	err := fmt.Errorf("create token: %w", WrapInternalError(root, "store unavailable"))

	got := CauseChain(err)
	want := []string{
		"create token: store unavailable: dial tcp: timeout",
		"store unavailable",
		"dial tcp: timeout",
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}
