package lod

import "github.com/Faultbox/meshlod/pkg/mesh"

// triangleCache is a triangle as it was when the first level of a pair was baked.
type triangleCache struct {
	ids     [3]uint32
	live    bool
	changed bool
}

// CompressedOutput bakes levels in pairs. The second level of a pair allocates one
// buffer per submesh laid out as
//
//	[previous only][shared by both][new only]
//
// and both levels reference overlapping ranges of it. A trailing unpaired level is
// baked on its own by Finalize.
type CompressedOutput struct {
	lodBuffer

	pending    bool // a first pass waits for its partner
	pendingLod int
	cache      []triangleCache
}

// Prepare implements OutputProvider.
func (o *CompressedOutput) Prepare(d *Data) {
	o.prepare(d)
	o.pending = false
	o.cache = nil
}

// BakeLodLevel implements OutputProvider.
func (o *CompressedOutput) BakeLodLevel(d *Data, lodIndex int) {
	if o.pending {
		o.bakeSecondPass(d, lodIndex)
		return
	}
	o.bakeFirstPass(d, lodIndex)
}

func (o *CompressedOutput) bakeFirstPass(d *Data, lodIndex int) {
	if cap(o.cache) < len(d.Triangles) {
		o.cache = make([]triangleCache, len(d.Triangles))
	}
	o.cache = o.cache[:len(d.Triangles)]
	for i := range d.Triangles {
		t := &d.Triangles[i]
		o.cache[i] = triangleCache{ids: t.VertexID, live: !t.Removed}
	}
	o.pending = true
	o.pendingLod = lodIndex
}

func (o *CompressedOutput) bakeSecondPass(d *Data, lodIndex int) {
	n := len(d.IndexBufferInfo)
	prevOnly := make([][]uint32, n)
	shared := make([][]uint32, n)
	newOnly := make([][]uint32, n)

	for i := range d.Triangles {
		t := &d.Triangles[i]
		c := &o.cache[i]
		s := t.SubmeshID
		if c.live && c.changed {
			prevOnly[s] = append(prevOnly[s], c.ids[:]...)
		}
		if t.Removed {
			continue
		}
		if c.changed {
			newOnly[s] = append(newOnly[s], t.VertexID[:]...)
		} else {
			shared[s] = append(shared[s], t.VertexID[:]...)
		}
	}

	for s := 0; s < n; s++ {
		prevCount := len(prevOnly[s]) + len(shared[s])
		newCount := len(shared[s]) + len(newOnly[s])
		invariant(newCount == d.IndexBufferInfo[s].IndexCount,
			"submesh %d bakes %d indices, expected %d", s, newCount, d.IndexBufferInfo[s].IndexCount)

		var indices []uint32
		var prev, cur mesh.IndexData
		switch {
		case prevCount == 0 && newCount == 0:
			indices = dummyTriangle
			prev = mesh.IndexData{Start: 0, Count: 3}
			cur = mesh.IndexData{Start: 0, Count: 3}
		case prevCount == 0:
			// shared is empty, so the new level follows the dummy directly
			indices = append(append([]uint32{}, dummyTriangle...), newOnly[s]...)
			prev = mesh.IndexData{Start: 0, Count: 3}
			cur = mesh.IndexData{Start: 3, Count: newCount}
		case newCount == 0:
			indices = append(append([]uint32{}, prevOnly[s]...), dummyTriangle...)
			prev = mesh.IndexData{Start: 0, Count: prevCount}
			cur = mesh.IndexData{Start: prevCount, Count: 3}
		default:
			indices = make([]uint32, 0, len(prevOnly[s])+len(shared[s])+len(newOnly[s]))
			indices = append(indices, prevOnly[s]...)
			indices = append(indices, shared[s]...)
			indices = append(indices, newOnly[s]...)
			prev = mesh.IndexData{Start: 0, Count: prevCount}
			cur = mesh.IndexData{Start: len(prevOnly[s]), Count: newCount}
		}

		buf := o.alloc(d, s, lodIndex, indices)
		if buf == nil {
			continue
		}
		prev.Buffer, cur.Buffer = buf, buf
		o.set(s, o.pendingLod, &prev)
		o.set(s, lodIndex, &cur)
	}
	o.pending = false
}

// BakeManualLodLevel implements OutputProvider.
func (o *CompressedOutput) BakeManualLodLevel(d *Data, manualMeshName string, lodIndex int) {
	o.bakeManual(manualMeshName, lodIndex)
}

// TriangleRemoved implements OutputProvider.
func (o *CompressedOutput) TriangleRemoved(d *Data, t TriangleIndex) {
	o.markChanged(t)
}

// TriangleChanged implements OutputProvider.
func (o *CompressedOutput) TriangleChanged(d *Data, t TriangleIndex) {
	o.markChanged(t)
}

func (o *CompressedOutput) markChanged(t TriangleIndex) {
	if !o.pending {
		return
	}
	o.cache[t].changed = true
}

// Finalize implements OutputProvider.
func (o *CompressedOutput) Finalize(d *Data) {
	if !o.pending {
		return
	}
	perSubmesh := make([][]uint32, len(d.IndexBufferInfo))
	for i := range o.cache {
		c := &o.cache[i]
		if c.live {
			s := d.Triangles[i].SubmeshID
			perSubmesh[s] = append(perSubmesh[s], c.ids[:]...)
		}
	}
	for s, indices := range perSubmesh {
		o.bake(d, s, o.pendingLod, indices)
	}
	o.pending = false
}

// Inject implements OutputProvider.
func (o *CompressedOutput) Inject(m *mesh.Mesh) error {
	return o.inject(m)
}
