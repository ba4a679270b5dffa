package lod

import (
	"github.com/Faultbox/meshlod/pkg/math"
)

// Curvature cost tuning.
const (
	curvatureBias      = 1.002 // keeps flat and collinear costs above zero
	minCurvature       = 0.001
	borderInwardCost   = 1.0
	seamFloor          = 0.05
	seamContinuesFloor = 0.005
	seamRipFactor      = 64 // src on a seam, dst off it
	seamFactor         = 8
	normalCostScale    = 8
)

// CurvatureCost prefers collapses across flat regions, along straight borders
// and along texture seams.
type CurvatureCost struct {
	sides []TriangleIndex
}

// Init implements CostCalculator.
func (c *CurvatureCost) Init(d *Data) {}

// EdgeCost implements CostCalculator.
func (c *CurvatureCost) EdgeCost(d *Data, srcIdx VertexIndex, e *Edge) float32 {
	src := &d.Vertices[srcIdx]
	dst := &d.Vertices[e.Dst]

	if c.flipsTriangle(d, srcIdx, e.Dst) {
		return NeverCollapseCost
	}

	var cost float32
	if src.IsBorder() {
		if e.RefCount > 1 {
			// the edge has a triangle on both sides, so the border folds inward
			cost = borderInwardCost
		} else {
			cost = borderKinkiness(d, src, e.Dst)
		}
	} else {
		cost = c.curvature(d, srcIdx, e.Dst)
	}

	if src.Seam {
		switch {
		case !dst.Seam:
			cost = math.Max(cost, seamFloor) * seamRipFactor
		case seamContinues(d, srcIdx, e.Dst):
			cost = math.Max(cost, seamContinuesFloor) * seamFactor
		default:
			cost = math.Max(cost, seamFloor) * seamFactor
		}
	}

	dist := src.Position.Distance(dst.Position)
	cost *= dist

	if d.UseVertexNormals {
		cost = math.Max(cost, normalCost(d, src, dst, dist)/normalCostScale)
	}
	return cost
}

// flipsTriangle reports whether moving src onto dst turns any surviving triangle over.
func (c *CurvatureCost) flipsTriangle(d *Data, src, dst VertexIndex) bool {
	dstPos := d.Vertices[dst].Position
	for _, ti := range d.Vertices[src].Triangles {
		t := &d.Triangles[ti]
		if t.HasVertex(dst) {
			continue
		}
		var p [3]math.Vec3
		for i, v := range t.Vertex {
			if v == src {
				p[i] = dstPos
			} else {
				p[i] = d.Vertices[v].Position
			}
		}
		if math.TriangleNormal(p[0], p[1], p[2]).Dot(t.Normal) < 0 {
			return true
		}
	}
	return false
}

// borderKinkiness scores sliding src along the border towards dst: 0.001 when the
// remaining border continues straight, up to 1 when it doubles back.
func borderKinkiness(d *Data, src *Vertex, dst VertexIndex) float32 {
	collapseDir := src.Position.Sub(d.Vertices[dst].Position).Normalize()
	var kinkiness float32
	for _, other := range src.Edges {
		if other.Dst == dst || other.RefCount != 1 {
			continue
		}
		otherDir := src.Position.Sub(d.Vertices[other.Dst].Position).Normalize()
		kinkiness = math.Max(kinkiness, (otherDir.Dot(collapseDir)+curvatureBias)*0.5)
	}
	return kinkiness
}

// curvature is driven by the least flat pair of a src triangle and a triangle on the collapsed edge.
func (c *CurvatureCost) curvature(d *Data, src, dst VertexIndex) float32 {
	c.sides = c.sides[:0]
	for _, ti := range d.Vertices[src].Triangles {
		if d.Triangles[ti].HasVertex(dst) {
			c.sides = append(c.sides, ti)
		}
	}

	curvature := float32(minCurvature)
	for _, ti := range d.Vertices[src].Triangles {
		n := d.Triangles[ti].Normal
		notCurvature := float32(-1)
		for _, si := range c.sides {
			notCurvature = math.Max(notCurvature, n.Dot(d.Triangles[si].Normal))
		}
		curvature = math.Max(curvature, (curvatureBias-notCurvature)*0.5)
	}
	return curvature
}

// seamContinues reports whether the seam runs along the edge, i.e. the triangles on
// either side of it reference src through different index buffer entries.
func seamContinues(d *Data, src, dst VertexIndex) bool {
	first, seen := uint32(0), false
	for _, ti := range d.Vertices[src].Triangles {
		t := &d.Triangles[ti]
		if !t.HasVertex(dst) {
			continue
		}
		id := t.VertexID[t.slot(src)]
		if !seen {
			first, seen = id, true
		} else if id != first {
			return true
		}
	}
	return false
}

// normalCost estimates how much shading of src's neighbours changes when src moves to dst.
func normalCost(d *Data, src, dst *Vertex, dist float32) float32 {
	diff := src.Normal.Dot(dst.Normal) / normalCostScale
	var cost float32
	for _, e := range src.Edges {
		n := &d.Vertices[e.Dst]
		beforeDist := n.Position.Distance(src.Position)
		afterDist := n.Position.Distance(dst.Position)
		beforeDot := n.Normal.Dot(src.Normal)
		afterDot := n.Normal.Dot(dst.Normal)
		shading := math.Max(diff, math.Abs(beforeDot-afterDot))
		reach := math.Max(afterDist/normalCostScale, math.Max(dist, math.Abs(beforeDist-afterDist)))
		cost = math.Max(cost, shading*reach)
	}
	return cost
}
