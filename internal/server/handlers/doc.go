// Package handlers provides the HTTP handlers served by the gateway itself:
// health, readiness, version, the API descriptor, the fallback 404 and the local
// custodial accounts group.
//
// The payment route groups are served by upstream services, see internal/routes.
package handlers
