// Package integration contains end-to-end tests for the gateway running against Postgres.
//
// These tests verify the provisioning records are persisted, the startup steps are
// idempotent across restarts and the server serves them. Each test runs against a
// temporary database with migrations applied, and the server is started in-process.
//
//	go test -tags=integration -v ./test/integration
//
// TEST_DATABASE_URL points the tests at a Postgres server (any database on it, the
// tests create and drop their own). Without it a local server on port 15433 is used,
// or localhost:5432 in CI.
package integration
