//go:build integration

// functions that are useful in integration tests

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// cleanupDatabase truncates the provisioning tables to reset the database state between tests
func cleanupDatabase(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		TRUNCATE TABLE mock_tokens;
		TRUNCATE TABLE custodial_accounts;
	`)
	if err != nil {
		t.Fatalf("Failed to cleanup database: %v", err)
	}
}

// getJSON fetches url and decodes the JSON body into out, returning the status code
func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}
