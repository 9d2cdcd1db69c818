// Package history keeps a memory-bounded record of every tool call.
//
// Two retention policies run independently: a hard count cap enforced at
// insert and a soft age cap enforced by a periodic sweep. An over-age entry
// may stay visible for up to one sweep interval. Stop must be called so the
// sweep does not outlive the owning registry.
package history
