package lod

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/meshlod/pkg/mesh"
)

// OutputProvider bakes the live triangles of a session into LOD index buffers.
// lodIndex counts baked levels from 0 and maps to SubMesh.LodFaceList positions.
type OutputProvider interface {
	Prepare(d *Data)
	BakeLodLevel(d *Data, lodIndex int)
	BakeManualLodLevel(d *Data, manualMeshName string, lodIndex int)
	TriangleRemoved(d *Data, t TriangleIndex)
	TriangleChanged(d *Data, t TriangleIndex)
	Finalize(d *Data)
	// Inject attaches the baked levels to m. Call it on the goroutine that owns m.
	Inject(m *mesh.Mesh) error
}

// NewOutputProvider returns the compressed provider when compression is requested.
func NewOutputProvider(adv AdvancedConfig) OutputProvider {
	if adv.UseCompression {
		return &CompressedOutput{}
	}
	return &SimpleOutput{}
}

// dummyTriangle stands in for an empty level; empty index buffers are not drawable.
var dummyTriangle = []uint32{0, 0, 0}

// lodBuffer collects baked index data until Inject.
type lodBuffer struct {
	submeshes [][]*mesh.IndexData
	manual    []string
	err       error
}

func (b *lodBuffer) prepare(d *Data) {
	b.submeshes = make([][]*mesh.IndexData, len(d.IndexBufferInfo))
	b.manual = nil
	b.err = nil
}

func (b *lodBuffer) set(submesh, lodIndex int, data *mesh.IndexData) {
	lods := b.submeshes[submesh]
	for len(lods) <= lodIndex {
		lods = append(lods, nil)
	}
	lods[lodIndex] = data
	b.submeshes[submesh] = lods
}

// alloc creates an index buffer of the submesh's index type. Failures are kept for Inject.
func (b *lodBuffer) alloc(d *Data, submesh, lodIndex int, indices []uint32) *mesh.IndexBuffer {
	buf, err := mesh.NewIndexBufferFrom(d.IndexBufferInfo[submesh].IndexType, indices)
	if err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("lod %d submesh %d: %w", lodIndex, submesh, err))
		return nil
	}
	return buf
}

// bake stores a buffer holding indices, or the dummy triangle, as one level of submesh.
func (b *lodBuffer) bake(d *Data, submesh, lodIndex int, indices []uint32) {
	if len(indices) == 0 {
		indices = dummyTriangle
	}
	if buf := b.alloc(d, submesh, lodIndex, indices); buf != nil {
		b.set(submesh, lodIndex, &mesh.IndexData{Buffer: buf, Count: len(indices)})
	}
}

func (b *lodBuffer) bakeManual(meshName string, lodIndex int) {
	for i := range b.submeshes {
		b.set(i, lodIndex, &mesh.IndexData{})
	}
	for len(b.manual) <= lodIndex {
		b.manual = append(b.manual, "")
	}
	b.manual[lodIndex] = meshName
}

// Levels returns the baked index data of a submesh, one entry per LOD level.
func (b *lodBuffer) Levels(submesh int) []*mesh.IndexData {
	return b.submeshes[submesh]
}

// ManualName returns the substitute mesh of a level, or "".
func (b *lodBuffer) ManualName(lodIndex int) string {
	if lodIndex < len(b.manual) {
		return b.manual[lodIndex]
	}
	return ""
}

func (b *lodBuffer) inject(m *mesh.Mesh) error {
	if b.err != nil {
		return b.err
	}
	if len(m.SubMeshes) != len(b.submeshes) {
		return fmt.Errorf("%w: baked %d, mesh has %d", ErrSubmeshMismatch, len(b.submeshes), len(m.SubMeshes))
	}
	for i, sm := range m.SubMeshes {
		sm.LodFaceList = append([]*mesh.IndexData(nil), b.submeshes[i]...)
	}
	return nil
}

// liveIndices appends the index buffer values of every live triangle, bucketed by submesh.
func liveIndices(d *Data, out [][]uint32) [][]uint32 {
	for i := range out {
		out[i] = make([]uint32, 0, max(d.IndexBufferInfo[i].IndexCount, 0))
	}
	for i := range d.Triangles {
		t := &d.Triangles[i]
		if t.Removed {
			continue
		}
		out[t.SubmeshID] = append(out[t.SubmeshID], t.VertexID[:]...)
	}
	return out
}
