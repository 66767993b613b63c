// Package middleware contains the http middleware that sits in front of the router:
// the security shell, the origin policy gate, the rate gates, the body decoder
// and the input sanitiser.
//
// Rejections are sent through an apperr.Responder so every middleware produces
// the same {success, message} envelope.
package middleware
