package lod

import (
	gomath "math"
)

// OutsideWeightedCost penalises collapses whose direction climbs out of the
// surface at src by more than WalkAngle degrees, which would push the
// silhouette outward.
type OutsideWeightedCost struct {
	Inner     CostCalculator
	WalkAngle float32 // degrees above the tangent plane allowed without penalty
	Weight    float32 // multiplier applied past the walk angle

	sinWalk float32
}

// Init implements CostCalculator.
func (c *OutsideWeightedCost) Init(d *Data) {
	c.Inner.Init(d)
	c.sinWalk = float32(gomath.Sin(float64(c.WalkAngle) * gomath.Pi / 180))
}

// EdgeCost implements CostCalculator.
func (c *OutsideWeightedCost) EdgeCost(d *Data, src VertexIndex, e *Edge) float32 {
	cost := c.Inner.EdgeCost(d, src, e)
	if cost == NeverCollapseCost {
		return cost
	}
	normal := d.surfaceNormal(src)
	dir := d.Vertices[e.Dst].Position.Sub(d.Vertices[src].Position).Normalize()
	if dir.Dot(normal) > c.sinWalk {
		cost *= c.Weight
		if cost > NeverCollapseCost {
			cost = NeverCollapseCost
		}
	}
	return cost
}
