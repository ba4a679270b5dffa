package lod

import "github.com/Faultbox/meshlod/pkg/mesh"

// SimpleOutput bakes every level into its own index buffer per submesh.
type SimpleOutput struct {
	lodBuffer
}

// Prepare implements OutputProvider.
func (o *SimpleOutput) Prepare(d *Data) {
	o.prepare(d)
}

// BakeLodLevel implements OutputProvider.
func (o *SimpleOutput) BakeLodLevel(d *Data, lodIndex int) {
	perSubmesh := liveIndices(d, make([][]uint32, len(d.IndexBufferInfo)))
	for i, indices := range perSubmesh {
		invariant(len(indices) == d.IndexBufferInfo[i].IndexCount,
			"submesh %d bakes %d indices, expected %d", i, len(indices), d.IndexBufferInfo[i].IndexCount)
		o.bake(d, i, lodIndex, indices)
	}
}

// BakeManualLodLevel implements OutputProvider.
func (o *SimpleOutput) BakeManualLodLevel(d *Data, manualMeshName string, lodIndex int) {
	o.bakeManual(manualMeshName, lodIndex)
}

// TriangleRemoved implements OutputProvider.
func (o *SimpleOutput) TriangleRemoved(d *Data, t TriangleIndex) {}

// TriangleChanged implements OutputProvider.
func (o *SimpleOutput) TriangleChanged(d *Data, t TriangleIndex) {}

// Finalize implements OutputProvider.
func (o *SimpleOutput) Finalize(d *Data) {}

// Inject implements OutputProvider.
func (o *SimpleOutput) Inject(m *mesh.Mesh) error {
	return o.inject(m)
}
