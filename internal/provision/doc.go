// Package provision holds the records created by the startup sequence: mock
// tokens and custodial accounts.
//
// Two stores are available. MemoryStore is used when no database is configured,
// PostgresStore persists the records through the sqlc queries in internal/database.
// Both upsert by natural key so the startup steps can run on every boot.
package provision
