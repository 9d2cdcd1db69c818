// Package ratelimit implements sliding-window admission control for tool
// invocations, keyed by (tool, user).
//
// Invariants:
// - The admission timestamp is recorded atomically with the check.
// - A user-specific window is created lazily on first use; callers without
//   a user id share the tool-level window.
package ratelimit
