// Package tool defines the core types of the tool invocation subsystem:
// tool definitions, call records and their state machine, execution
// contexts, results, and the executor contract implemented per tool.
//
// Invariants:
// - Canonical tool ids come from a closed enumeration; aliases map onto it.
// - A Call is created pending before name resolution and only ever moves
//   pending -> running -> completed|failed, or pending -> failed.
package tool
