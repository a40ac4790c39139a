// Package middleware holds the HTTP middleware for the admin server.
//
// The chain, outermost first:
//
//	RequestID(Logging(Recovery(Timeout(mux))))
//
// RequestID stamps each request with a correlation ID before anything
// else runs, so access logs, panic responses, and everything downstream
// share it. Recovery sits inside Logging: a panic still produces an
// access log line with its 500 status. Timeout bounds handler time by
// shrinking the request context deadline; handlers map the resulting
// context error to 504 themselves, which keeps a single writer on the
// response.
package middleware
