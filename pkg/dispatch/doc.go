// Package dispatch wires the catalog, permission evaluator, rate limiter,
// parameter validation, history store and statistics aggregator into one
// registry with a fixed invocation pipeline:
//
//	resolve -> lookup/active -> permission -> rate limit -> validate ->
//	running -> invoke -> terminal -> record
//
// Invariants:
// - ExecuteTool never panics and never returns an error; callers branch on
//   the returned Call's status.
// - Exactly one history entry is written per invocation attempt.
// - Usage statistics are updated only for calls that resolved to a
//   catalog-known tool.
// - No lock is held while the executor runs.
package dispatch
