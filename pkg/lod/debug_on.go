//go:build lod_debug

package lod

const debugChecks = true
