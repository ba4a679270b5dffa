package lod

import (
	"fmt"
	"testing"

	"github.com/Faultbox/meshlod/pkg/mesh"
)

func edgeCost(t *testing.T, d *Data, calc CostCalculator, src, dst VertexIndex) float32 {
	t.Helper()
	e := d.Vertices[src].Edge(dst)
	if e == nil {
		t.Fatalf("no edge %d -> %d", src, dst)
	}
	return calc.EdgeCost(d, src, e)
}

func TestCurvatureCost_Border(t *testing.T) {
	d := populate(t, gridMesh(t, 2))
	calc := &CurvatureCost{}
	calc.Init(d)

	mid := vertexAt(t, d, 1, 0, 0)
	corner := vertexAt(t, d, 0, 0, 0)
	centre := vertexAt(t, d, 1, 1, 0)

	straight := edgeCost(t, d, calc, mid, vertexAt(t, d, 0, 0, 0))
	kink := edgeCost(t, d, calc, corner, vertexAt(t, d, 1, 0, 0))
	inward := edgeCost(t, d, calc, mid, centre)

	if straight >= kink {
		t.Errorf("expected straight border collapse (%v) cheaper than a corner (%v)", straight, kink)
	}
	if straight >= inward {
		t.Errorf("expected collapse along the border (%v) cheaper than inward (%v)", straight, inward)
	}
	if inward != borderInwardCost {
		t.Errorf("expected inward cost %v at unit distance, got %v", float32(borderInwardCost), inward)
	}
	if straight <= 0 {
		t.Errorf("expected positive cost for collinear border, got %v", straight)
	}
}

func TestCurvatureCost_FlatInteriorIsCheap(t *testing.T) {
	d := populate(t, gridMesh(t, 2))
	calc := &CurvatureCost{}

	centre := vertexAt(t, d, 1, 1, 0)
	for _, e := range d.Vertices[centre].Edges {
		cost := calc.EdgeCost(d, centre, &e)
		if cost <= 0 || cost > 0.01 {
			t.Errorf("flat interior collapse %d->%d cost %v, want small positive", centre, e.Dst, cost)
		}
	}
}

func TestCurvatureCost_FlipGuard(t *testing.T) {
	// collapsing s onto d moves the second triangle across the line p-q
	m := newMesh(t, "flip", mesh.TriangleList, []float32{
		0, 0, 0,    // s
		1, 0, 0,    // d
		0, 1, 0,    // p
		0.5, -1, 0, // q
	}, nil, []uint32{0, 1, 2, 0, 2, 3})
	d := populate(t, m)
	calc := &CurvatureCost{}

	s := vertexAt(t, d, 0, 0, 0)
	if got := edgeCost(t, d, calc, s, vertexAt(t, d, 1, 0, 0)); got != NeverCollapseCost {
		t.Errorf("expected NeverCollapseCost for a flipping collapse, got %v", got)
	}
	if got := edgeCost(t, d, calc, s, vertexAt(t, d, 0, 1, 0)); got == NeverCollapseCost {
		t.Error("expected collapse onto the shared vertex to be allowed")
	}
}

func TestCurvatureCost_Seams(t *testing.T) {
	// a flat grid whose right column is split from the rest, as with a UV seam
	m := newMesh(t, "seam", mesh.TriangleList, []float32{
		0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0, 0, 2, 0, 1, 2, 0,
		1, 0, 0, 2, 0, 0, 1, 1, 0, 2, 1, 0, 1, 2, 0, 2, 2, 0,
	}, nil, []uint32{
		0, 1, 3, 0, 3, 2, 2, 3, 5, 2, 5, 4,
		6, 7, 9, 6, 9, 8, 8, 9, 11, 8, 11, 10,
	})
	d := populate(t, m)
	calc := &CurvatureCost{}

	seamMid := vertexAt(t, d, 1, 1, 0)
	if !d.Vertices[seamMid].Seam {
		t.Fatal("expected split column to be a seam")
	}

	along := edgeCost(t, d, calc, seamMid, vertexAt(t, d, 1, 2, 0))
	off := edgeCost(t, d, calc, seamMid, vertexAt(t, d, 0, 1, 0))
	if along >= off {
		t.Errorf("expected collapse along the seam (%v) cheaper than off it (%v)", along, off)
	}
	if off < seamFloor*seamRipFactor {
		t.Errorf("expected collapse off the seam to cost at least %v, got %v", seamFloor*seamRipFactor, off)
	}
}

func TestOutsideWeightedCost(t *testing.T) {
	tests := []struct {
		name      string
		walkAngle float32
		weighted  bool
	}{
		{"in plane within walk angle", 0, false},
		{"walk angle below plane", -10, true},
		{"wide walk angle", 45, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := populate(t, gridMesh(t, 2))
			inner := &CurvatureCost{}
			calc := &OutsideWeightedCost{Inner: inner, WalkAngle: tt.walkAngle, Weight: 10}
			calc.Init(d)

			src := vertexAt(t, d, 1, 1, 0)
			dst := vertexAt(t, d, 1, 0, 0)
			base := edgeCost(t, d, inner, src, dst)
			got := edgeCost(t, d, calc, src, dst)

			want := base
			if tt.weighted {
				want = base * 10
			}
			if got != want {
				t.Errorf("cost = %v, want %v", got, want)
			}
		})
	}
}

func TestNewCostCalculator(t *testing.T) {
	tests := []struct {
		name string
		adv  AdvancedConfig
		want string
	}{
		{"plain", AdvancedConfig{}, "*lod.CurvatureCost"},
		{"outside", AdvancedConfig{OutsideWeight: 2}, "*lod.OutsideWeightedCost"},
		{"record", AdvancedConfig{OutsideWeight: 2, RecordProfile: true}, "*lod.ProfiledCost"},
		{"replay", AdvancedConfig{Profile: []ProfiledEdge{{Costs: []float32{1}}}}, "*lod.ProfiledCost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCostCalculator(tt.adv, nil)
			if got := fmt.Sprintf("%T", calc); got != tt.want {
				t.Errorf("calculator = %s, want %s", got, tt.want)
			}
		})
	}
}
