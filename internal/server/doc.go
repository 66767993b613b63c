// Package server provides the HTTP server for the payment gateway.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// The package wires the middleware pipeline, the infrastructure handlers
// (health, readiness, version, metrics), the /api descriptor and the six route groups.
//
// middleware is in internal/server/middleware, handlers in internal/server/handlers
package server
