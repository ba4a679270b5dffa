package lod

import (
	"container/heap"
	"fmt"

	"go.uber.org/zap"
)

// CollapserState is the lifecycle stage of a Collapser.
type CollapserState int

const (
	CollapserIdle CollapserState = iota
	CollapserInitialized
	CollapserReducing
	CollapserDone
)

// String returns a human-readable state name.
func (s CollapserState) String() string {
	switch s {
	case CollapserIdle:
		return "Idle"
	case CollapserInitialized:
		return "Initialized"
	case CollapserReducing:
		return "Reducing"
	case CollapserDone:
		return "Done"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// collapsedEdge remembers which index buffer entry replaced srcID in a submesh.
type collapsedEdge struct {
	srcID, dstID uint32
	submesh      int
}

// Collapser runs the greedy reduction loop of one session.
type Collapser struct {
	state CollapserState
	log   *zap.Logger

	// scratch reused between collapses
	edges     []collapsedEdge
	triangles []TriangleIndex
	neighbors []VertexIndex
}

// NewCollapser creates an idle collapser.
func NewCollapser(log *zap.Logger) *Collapser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collapser{log: log}
}

// State returns the current lifecycle stage.
func (c *Collapser) State() CollapserState {
	return c.state
}

// InitCollapseCosts scores every vertex and fills the cost heap. Vertices
// without edges are unused by any triangle and never collapse.
func (c *Collapser) InitCollapseCosts(d *Data, calc CostCalculator) {
	calc.Init(d)
	for i := range d.Vertices {
		v := VertexIndex(i)
		if len(d.Vertices[v].Edges) == 0 {
			c.log.Debug("unused vertex",
				zap.String("mesh", d.MeshName),
				zap.Int("vertex", i))
			continue
		}
		updateVertexCost(d, calc, v)
	}
	c.state = CollapserInitialized
}

// Collapse removes the cheapest vertex until at most vertexCountLimit vertices
// remain or the cheapest collapse costs more than costLimit. Running out of
// candidates ends the loop early.
func (c *Collapser) Collapse(d *Data, calc CostCalculator, out OutputProvider, vertexCountLimit int, costLimit float32) {
	if c.state == CollapserIdle || c.state == CollapserDone {
		invariant(false, "collapse called in state %s", c.state)
		return
	}
	c.state = CollapserReducing
	for d.heap.Len() > vertexCountLimit {
		next := d.heap.peek()
		if next.cost == NeverCollapseCost || next.cost > costLimit {
			break
		}
		c.collapseVertex(d, calc, out, next.vertex)
	}
}

// Finish marks the end of the session.
func (c *Collapser) Finish() {
	c.state = CollapserDone
}

func (c *Collapser) collapseVertex(d *Data, calc CostCalculator, out OutputProvider, src VertexIndex) {
	dst := d.Vertices[src].CollapseTo
	if debugChecks {
		c.assertValidVertex(d, src)
	}

	c.neighbors = c.neighbors[:0]
	for _, e := range d.Vertices[src].Edges {
		c.neighbors = append(c.neighbors, e.Dst)
	}
	c.triangles = append(c.triangles[:0], d.Vertices[src].Triangles...)
	c.edges = c.edges[:0]

	// Triangles on the collapsed edge degenerate. They also tell which index
	// buffer entry of dst replaces each entry of src.
	for _, ti := range c.triangles {
		t := &d.Triangles[ti]
		if !t.HasVertex(dst) {
			continue
		}
		srcID := t.VertexID[t.slot(src)]
		if _, ok := c.findDstID(srcID, t.SubmeshID); !ok {
			c.edges = append(c.edges, collapsedEdge{
				srcID:   srcID,
				dstID:   t.VertexID[t.slot(dst)],
				submesh: t.SubmeshID,
			})
		}
		out.TriangleRemoved(d, ti)
		d.removeTriangle(ti)
	}
	invariant(len(c.edges) > 0, "collapse %d->%d removed no triangles", src, dst)

	for _, ti := range c.triangles {
		t := &d.Triangles[ti]
		if t.Removed {
			continue
		}
		slot := t.slot(src)
		dstID, ok := c.findDstID(t.VertexID[slot], t.SubmeshID)
		if !ok {
			// no collapsed edge shares this triangle's attributes; moving it would
			// stretch them across the seam
			out.TriangleRemoved(d, ti)
			d.removeTriangle(ti)
			continue
		}
		d.replaceVertex(ti, slot, dst, dstID)
		out.TriangleChanged(d, ti)
	}

	srcVert := &d.Vertices[src]
	invariant(len(srcVert.Triangles) == 0 && len(srcVert.Edges) == 0,
		"collapsed vertex %d keeps %d triangles and %d edges", src, len(srcVert.Triangles), len(srcVert.Edges))
	d.Vertices[dst].Seam = d.Vertices[dst].Seam || srcVert.Seam

	if srcVert.heapIndex >= 0 {
		heap.Remove(&d.heap, srcVert.heapIndex)
	}
	srcVert.collapsed = true
	srcVert.CollapseTo = NoVertex
	srcVert.Edges = nil
	srcVert.Triangles = nil

	updateVertexCost(d, calc, dst)
	for _, e := range d.Vertices[dst].Edges {
		c.neighbors = append(c.neighbors, e.Dst)
	}
	for i, n := range c.neighbors {
		if n == dst || d.Vertices[n].collapsed || containsVertex(c.neighbors[:i], n) {
			continue
		}
		updateVertexCost(d, calc, n)
	}
}

func (c *Collapser) findDstID(srcID uint32, submesh int) (uint32, bool) {
	for _, e := range c.edges {
		if e.srcID == srcID && e.submesh == submesh {
			return e.dstID, true
		}
	}
	return 0, false
}

func containsVertex(vs []VertexIndex, v VertexIndex) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// assertValidVertex checks the graph around v. Only called when debugChecks is set.
func (c *Collapser) assertValidVertex(d *Data, v VertexIndex) {
	vert := &d.Vertices[v]
	invariant(!vert.collapsed, "vertex %d already collapsed", v)
	invariant(vert.CollapseTo != NoVertex, "vertex %d has no target", v)
	invariant(vert.heapIndex >= 0 && d.heap.entries[vert.heapIndex].vertex == v,
		"vertex %d heap position out of sync", v)
	for _, ti := range vert.Triangles {
		t := &d.Triangles[ti]
		invariant(!t.Removed && t.HasVertex(v), "vertex %d lists foreign triangle %d", v, ti)
		invariant(!t.isMalformed(), "triangle %d is malformed", ti)
	}
	for i, e := range vert.Edges {
		invariant(e.RefCount > 0, "edge %d->%d has refcount %d", v, e.Dst, e.RefCount)
		for _, other := range vert.Edges[i+1:] {
			invariant(other.Dst != e.Dst, "vertex %d has duplicate edges to %d", v, e.Dst)
		}
		back := d.Vertices[e.Dst].Edge(v)
		invariant(back != nil && back.RefCount == e.RefCount, "edge %d->%d has no matching reverse edge", v, e.Dst)
	}
}
