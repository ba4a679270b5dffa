package lod

import (
	gomath "math"
	"sort"
	"testing"

	"github.com/Faultbox/meshlod/pkg/math"
	"github.com/Faultbox/meshlod/pkg/mesh"
)

// newMesh builds a single submesh mesh over shared vertices.
func newMesh(t *testing.T, name string, op mesh.OperationType, positions, normals []float32, indices []uint32) *mesh.Mesh {
	t.Helper()
	ib, err := mesh.NewIndexBufferFrom(mesh.IndexType16, indices)
	if err != nil {
		t.Fatalf("failed to create index buffer: %v", err)
	}
	var radius float32
	for i := 0; i+2 < len(positions); i += 3 {
		radius = max(radius, math.Vec3FromSlice(positions, i/3).Length())
	}
	return &mesh.Mesh{
		Name:             name,
		SharedVertexData: &mesh.VertexData{Buffer: mesh.NewVertexBuffer(positions, normals)},
		SubMeshes: []*mesh.SubMesh{{
			UseSharedVertices: true,
			IndexData:         &mesh.IndexData{Buffer: ib, Count: len(indices)},
			Operation:         op,
		}},
		BoundingRadius: radius,
	}
}

// icosahedron returns a unit icosahedron: 12 vertices, 20 triangles, closed, no seams.
func icosahedron(t *testing.T) *mesh.Mesh {
	t.Helper()
	p := float32((1 + gomath.Sqrt(5)) / 2)
	raw := []math.Vec3{
		{X: -1, Y: p}, {X: 1, Y: p}, {X: -1, Y: -p}, {X: 1, Y: -p},
		{Y: -1, Z: p}, {Y: 1, Z: p}, {Y: -1, Z: -p}, {Y: 1, Z: -p},
		{X: p, Z: -1}, {X: p, Z: 1}, {X: -p, Z: -1}, {X: -p, Z: 1},
	}
	var positions, normals []float32
	for _, v := range raw {
		n := v.Normalize()
		positions = append(positions, n.X, n.Y, n.Z)
		normals = append(normals, n.X, n.Y, n.Z)
	}
	indices := []uint32{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}
	return newMesh(t, "icosahedron", mesh.TriangleList, positions, normals, indices)
}

// gridMesh returns a flat n x n grid of unit quads in the XY plane without normals.
func gridMesh(t *testing.T, n int) *mesh.Mesh {
	t.Helper()
	var positions []float32
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			positions = append(positions, float32(x), float32(y), 0)
		}
	}
	var indices []uint32
	row := uint32(n + 1)
	for y := uint32(0); y < uint32(n); y++ {
		for x := uint32(0); x < uint32(n); x++ {
			a := y*row + x
			indices = append(indices, a, a+1, a+row+1, a, a+row+1, a+row)
		}
	}
	return newMesh(t, "grid", mesh.TriangleList, positions, nil, indices)
}

// stripMesh returns a flat strip of n quads encoded as a triangle strip.
func stripMesh(t *testing.T, n int) *mesh.Mesh {
	t.Helper()
	var positions []float32
	var indices []uint32
	for i := 0; i <= n; i++ {
		positions = append(positions, float32(i), 0, 0, float32(i), 1, 0)
		indices = append(indices, uint32(2*i), uint32(2*i+1))
	}
	return newMesh(t, "strip", mesh.TriangleStrip, positions, nil, indices)
}

// populate builds the topology of m without running a session.
func populate(t *testing.T, m *mesh.Mesh) *Data {
	t.Helper()
	d := NewData(m.Name, nil)
	if err := (&MeshInput{Mesh: m}).Populate(d); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	return d
}

// vertexAt returns the vertex at (x, y, z), failing the test if there is none.
func vertexAt(t *testing.T, d *Data, x, y, z float32) VertexIndex {
	t.Helper()
	v, ok := d.VertexAt(math.Vec3{X: x, Y: y, Z: z})
	if !ok {
		t.Fatalf("no vertex at (%v, %v, %v)", x, y, z)
	}
	return v
}

// triangles returns the triangles of a baked level in a canonical order.
func triangles(data *mesh.IndexData) [][3]uint32 {
	indices := data.Indices()
	var out [][3]uint32
	for i := 0; i+2 < len(indices); i += 3 {
		out = append(out, [3]uint32{indices[i], indices[i+1], indices[i+2]})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		for k := 0; k < 3; k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return out
}

func isDummy(tri [3]uint32) bool {
	return tri == [3]uint32{0, 0, 0}
}
