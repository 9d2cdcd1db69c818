// Package version records the toolgate release version.
package version

// Version is the toolgate release version.
const Version = "0.1.0"
