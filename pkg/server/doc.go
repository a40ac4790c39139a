// Package server exposes the relay over HTTP: the generation endpoint,
// health and circuit inspection, admin controls, usage summaries, and the
// Prometheus scrape target.
//
// The server is an operator surface in front of a failover orchestrator.
// It owns route setup, the middleware chain, and graceful lifecycle; the
// generation semantics live entirely in pkg/failover.
//
// # Basic Usage
//
// Creating and starting a server:
//
//	orch, err := failover.New(failoverCfg, invokers, failover.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer orch.Close()
//
//	srv := server.New(cfg.Server, orch, server.Options{
//	    UsageStorage: store,
//	    Metrics:      collector.Handler(),
//	    Logger:       logger,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is canceled, Shutdown is called, or the
// listener fails. Signal handling belongs to the caller; pkg/cli wires
// SIGINT and SIGTERM into the context it passes here.
//
// # Routes
//
//   - POST /v1/generate - run a generation through the failover chain
//   - GET /healthz - liveness probe, always 200 while the process runs
//   - GET /readyz - readiness probe, 503 until a provider can serve
//   - GET /v1/health - per-provider health records with an overall rollup
//   - GET /v1/health/{provider} - one provider's health record
//   - GET /v1/circuits - circuit breaker snapshot per provider
//   - POST /v1/admin/primary - move a provider to the front of the chain
//   - POST /v1/admin/recover - probe an open breaker and close it on success
//   - POST /v1/admin/reset - force a breaker back to closed
//   - GET /v1/usage/summary - per-provider usage rollup since a cutoff
//   - GET /metrics - Prometheus exposition (path configurable)
//
// The usage summary accepts ?since= as either an RFC 3339 timestamp or a
// duration such as 24h; the default window is the last 24 hours.
//
// # Middleware Chain
//
// Requests pass through RequestID, Logging, Recovery, and Timeout, in that
// order from the outside in. See pkg/server/middleware for the ordering
// constraints.
//
// # Error Shape
//
// All error responses share one JSON shape:
//
//	{"error": "message", "request_id": "..."}
//
// Generation failures map onto status codes by error type: validation
// errors return 400, an exhausted provider chain returns 503, configuration
// errors return 500, and a request that outlives its deadline returns 504.
package server
