// Package services builds the backing services used by the server from configuration.
//
// Each concern has a local implementation (dev/test) and a remote one selected via
// configuration: the provisioning store is in memory unless DATABASE_URL is set, and
// the rate limit counters are in memory unless REDIS_URL is set.
package services
