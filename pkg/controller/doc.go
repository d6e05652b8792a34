// Package controller serves the optional debug HTTP endpoint of a run.
//
// The debug server exposes:
//   - the Prometheus metrics of the pipeline (MetricsPath)
//   - net/http/pprof handlers under /debug/pprof/
//   - a liveness probe at /healthz
//
// Every request goes through WithLogger, which tags it with a request ID.
package controller
