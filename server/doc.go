// Package server exposes resume workflow runs over HTTP.
//
// Routes:
//
//	POST /runs       start a run and wait for it (scope runs:create)
//	GET  /runs/{id}  fetch a finished run from this process (scope runs:create)
//	GET  /healthz    liveness
//	GET  /metrics    Prometheus exposition
//
// Runs are synchronous: the response is written once finalize has completed.
// Finished runs are kept in memory for the life of the process.
package server
