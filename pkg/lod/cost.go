package lod

import (
	"container/heap"

	"go.uber.org/zap"
)

// CostCalculator scores collapsing src along edge e. Lower is safer;
// NeverCollapseCost forbids the collapse. Results are never negative.
type CostCalculator interface {
	// Init prepares the calculator for a freshly populated topology.
	Init(d *Data)
	EdgeCost(d *Data, src VertexIndex, e *Edge) float32
}

// NewCostCalculator builds the curvature calculator wrapped by the decorators adv asks for:
// outside weighting first, then profile replay or recording.
func NewCostCalculator(adv AdvancedConfig, log *zap.Logger) CostCalculator {
	var calc CostCalculator = &CurvatureCost{}
	if adv.OutsideWeight > 0 {
		calc = &OutsideWeightedCost{
			Inner:     calc,
			WalkAngle: adv.OutsideWalkAngle,
			Weight:    adv.OutsideWeight,
		}
	}
	switch {
	case len(adv.Profile) > 0:
		calc = NewProfileReplay(calc, adv.Profile, log)
	case adv.RecordProfile:
		calc = NewProfileRecorder(calc)
	}
	return calc
}

// updateVertexCost recomputes every edge cost of v and re-queues v if its
// cheapest target changed. Vertices without edges leave the heap.
func updateVertexCost(d *Data, calc CostCalculator, v VertexIndex) {
	vert := &d.Vertices[v]
	cost := UninitializedCost
	target := NoVertex
	for i := range vert.Edges {
		e := &vert.Edges[i]
		e.CollapseCost = calc.EdgeCost(d, v, e)
		invariant(e.CollapseCost >= 0 && e.CollapseCost != UninitializedCost,
			"invalid collapse cost %v for %d->%d", e.CollapseCost, v, e.Dst)
		if e.CollapseCost < cost {
			cost = e.CollapseCost
			target = e.Dst
		}
	}

	if cost == vert.CollapseCost && target == vert.CollapseTo {
		return
	}
	if vert.heapIndex >= 0 {
		heap.Remove(&d.heap, vert.heapIndex)
	}
	vert.CollapseCost = cost
	vert.CollapseTo = target
	if target != NoVertex {
		heap.Push(&d.heap, heapEntry{vertex: v, cost: cost})
	}
}
