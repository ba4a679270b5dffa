// Package lod generates mesh levels of detail by greedy edge collapse.
//
// A Generator runs one Session per mesh: an InputProvider fills the topology
// (Data), a CostCalculator scores every directed edge, the Collapser removes the
// cheapest vertex until each level's threshold is met, and an OutputProvider
// bakes one index buffer per level. Baked buffers reach the mesh only through
// Session.Inject, so the pipeline can run on a background Queue.
package lod

import (
	"errors"
	"fmt"
	gomath "math"
)

// Collapse cost sentinels. UninitializedCost orders after NeverCollapseCost.
var (
	UninitializedCost = float32(gomath.Inf(1))
	NeverCollapseCost = float32(gomath.MaxFloat32)
)

// Generation errors.
var (
	ErrNilMesh          = errors.New("lod config has no mesh")
	ErrNoStrategy       = errors.New("lod config has no strategy")
	ErrLevelOrder       = errors.New("lod level values must not decrease")
	ErrInvalidReduction = errors.New("invalid reduction value")
	ErrSubmeshMismatch  = errors.New("baked submesh count does not match mesh")
	ErrAlreadyInjected  = errors.New("session already injected")
	ErrTooManyTriangles = errors.New("triangle count exceeds reserved capacity")
	ErrTooManyVertices  = errors.New("vertex count exceeds reserved capacity")
	ErrQueueClosed      = errors.New("lod queue closed")
	ErrJobPending       = errors.New("lod job still running")
)

// invariant panics with a formatted message when checks are compiled in and cond is false.
func invariant(cond bool, format string, args ...interface{}) {
	if debugChecks && !cond {
		panic(fmt.Sprintf("lod: "+format, args...))
	}
}
