//go:build !lod_debug

package lod

// debugChecks enables invariant panics. Build with -tags lod_debug to turn it on.
const debugChecks = false
