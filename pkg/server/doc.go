// Package server provides the HTTP front end of the router.
//
// The server registers the operational endpoints (GET /health, GET
// /metrics) ahead of a catch-all route that hands every other request to
// the proxy dispatcher, wraps the whole surface in the request ID, logging,
// and recovery middleware, and manages lifecycle: start, graceful shutdown
// on SIGINT/SIGTERM or context cancellation, and shutdown timeouts from
// configuration.
//
// # Basic Usage
//
//	srv := server.NewServer(cfg.Server, dispatcher, server.Options{
//	    Health:  healthHandler,
//	    Metrics: metricsHandler,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
