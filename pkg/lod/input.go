package lod

import (
	"fmt"

	"github.com/Faultbox/meshlod/pkg/math"
	"github.com/Faultbox/meshlod/pkg/mesh"
)

// InputProvider fills a session's topology from a mesh representation.
type InputProvider interface {
	Populate(d *Data) error
}

// MeshInput reads a live mesh, holding each buffer's read lock only while copying from it.
// It must not run concurrently with writers of the same mesh.
type MeshInput struct {
	Mesh *mesh.Mesh
}

// Populate implements InputProvider.
func (in *MeshInput) Populate(d *Data) error {
	m := in.Mesh
	if err := m.Validate(); err != nil {
		return fmt.Errorf("populating %s: %w", m.Name, err)
	}
	d.MeshName = m.Name

	var shared []VertexIndex
	vertices, triangles := 0, 0
	if m.SharedVertexData != nil {
		vertices += m.SharedVertexData.VertexCount()
	}
	for _, sm := range m.SubMeshes {
		if !sm.UseSharedVertices {
			vertices += sm.VertexData.VertexCount()
		}
		triangles += sm.Operation.TriangleCount(sm.IndexData.Count)
	}
	d.reserve(vertices, triangles, len(m.SubMeshes))

	d.UseVertexNormals = true
	for i, sm := range m.SubMeshes {
		vb := m.Vertices(sm).Buffer
		if !vb.HasNormals() {
			d.UseVertexNormals = false
		}

		lookup := shared
		if !sm.UseSharedVertices || shared == nil {
			vb.RLock()
			var err error
			lookup, err = addVertexData(d, vb.Positions, vb.Normals)
			vb.RUnlock()
			if err != nil {
				return fmt.Errorf("populating %s submesh %d: %w", m.Name, i, err)
			}
			if sm.UseSharedVertices {
				shared = lookup
			}
		}

		ib := sm.IndexData.Buffer
		ib.RLock()
		indices := ib.ReadRange(sm.IndexData.Start, sm.IndexData.Count)
		ib.RUnlock()

		if err := addIndexData(d, i, ib.Type(), sm.Operation, indices, lookup); err != nil {
			return fmt.Errorf("populating %s submesh %d: %w", m.Name, i, err)
		}
	}

	d.normalizeVertexNormals()
	return nil
}

// VertexSnapshot is a copy of a vertex buffer's streams.
type VertexSnapshot struct {
	Positions []float32
	Normals   []float32
}

func (s *VertexSnapshot) hasNormals() bool {
	return len(s.Normals) > 0 && len(s.Normals) == len(s.Positions)
}

// SubMeshBuffer is a copy of one submesh's geometry.
type SubMeshBuffer struct {
	UseSharedVertices bool
	Vertices          VertexSnapshot
	IndexType         mesh.IndexType
	Operation         mesh.OperationType
	Indices           []uint32
}

// MeshBuffer is a copy of a mesh's geometry that generation can read from any goroutine.
type MeshBuffer struct {
	MeshName       string
	BoundingRadius float32
	SharedVertices VertexSnapshot
	SubMeshes      []SubMeshBuffer
}

// CaptureMeshBuffer copies the geometry of m under read locks.
func CaptureMeshBuffer(m *mesh.Mesh) (*MeshBuffer, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("capturing %s: %w", m.Name, err)
	}
	buf := &MeshBuffer{
		MeshName:       m.Name,
		BoundingRadius: m.BoundingRadius,
		SubMeshes:      make([]SubMeshBuffer, len(m.SubMeshes)),
	}
	if m.SharedVertexData != nil && m.SharedVertexData.Buffer != nil {
		buf.SharedVertices = snapshotVertices(m.SharedVertexData.Buffer)
	}
	for i, sm := range m.SubMeshes {
		out := &buf.SubMeshes[i]
		out.UseSharedVertices = sm.UseSharedVertices
		out.Operation = sm.Operation
		if !sm.UseSharedVertices {
			out.Vertices = snapshotVertices(sm.VertexData.Buffer)
		}
		ib := sm.IndexData.Buffer
		ib.RLock()
		out.IndexType = ib.Type()
		out.Indices = ib.ReadRange(sm.IndexData.Start, sm.IndexData.Count)
		ib.RUnlock()
	}
	return buf, nil
}

func snapshotVertices(vb *mesh.VertexBuffer) VertexSnapshot {
	vb.RLock()
	defer vb.RUnlock()
	s := VertexSnapshot{Positions: append([]float32(nil), vb.Positions...)}
	if vb.HasNormals() {
		s.Normals = append([]float32(nil), vb.Normals...)
	}
	return s
}

// BufferInput populates from a MeshBuffer and never touches the live mesh.
type BufferInput struct {
	Buffer *MeshBuffer
}

// Populate implements InputProvider.
func (in *BufferInput) Populate(d *Data) error {
	b := in.Buffer
	d.MeshName = b.MeshName

	vertices := len(b.SharedVertices.Positions) / 3
	triangles := 0
	for i := range b.SubMeshes {
		sm := &b.SubMeshes[i]
		if !sm.UseSharedVertices {
			vertices += len(sm.Vertices.Positions) / 3
		}
		triangles += sm.Operation.TriangleCount(len(sm.Indices))
	}
	d.reserve(vertices, triangles, len(b.SubMeshes))

	var shared []VertexIndex
	d.UseVertexNormals = true
	for i := range b.SubMeshes {
		sm := &b.SubMeshes[i]
		vs := &sm.Vertices
		if sm.UseSharedVertices {
			vs = &b.SharedVertices
		}
		if !vs.hasNormals() {
			d.UseVertexNormals = false
		}

		lookup := shared
		if !sm.UseSharedVertices || shared == nil {
			var err error
			lookup, err = addVertexData(d, vs.Positions, vs.Normals)
			if err != nil {
				return fmt.Errorf("populating %s submesh %d: %w", b.MeshName, i, err)
			}
			if sm.UseSharedVertices {
				shared = lookup
			}
		}

		if err := addIndexData(d, i, sm.IndexType, sm.Operation, sm.Indices, lookup); err != nil {
			return fmt.Errorf("populating %s submesh %d: %w", b.MeshName, i, err)
		}
	}

	d.normalizeVertexNormals()
	return nil
}

// addVertexData merges one vertex stream into d and returns the input index -> vertex lookup.
func addVertexData(d *Data, positions, normals []float32) ([]VertexIndex, error) {
	n := len(positions) / 3
	hasNormals := len(normals) == len(positions)
	lookup := make([]VertexIndex, n)
	for i := 0; i < n; i++ {
		var normal math.Vec3
		if hasNormals {
			normal = math.Vec3FromSlice(normals, i)
		}
		v, err := d.addVertex(math.Vec3FromSlice(positions, i), normal)
		if err != nil {
			return nil, err
		}
		lookup[i] = v
	}
	return lookup, nil
}

// addIndexData converts an index stream of any topology into triangles of submesh.
func addIndexData(d *Data, submesh int, typ mesh.IndexType, op mesh.OperationType, indices []uint32, lookup []VertexIndex) error {
	if typ.Size() == 0 {
		return fmt.Errorf("%w: %s", mesh.ErrUnsupportedIndexType, typ)
	}
	if op > mesh.TriangleFan {
		return fmt.Errorf("%w: %s", mesh.ErrUnsupportedOperation, op)
	}

	info := &d.IndexBufferInfo[submesh]
	info.IndexType = typ
	info.IndexCount = op.TriangleCount(len(indices)) * 3

	var err error
	mesh.ForEachTriangle(op, indices, func(a, b, c uint32) {
		if err != nil {
			return
		}
		err = d.addTriangle(submesh, [3]uint32{a, b, c}, lookup)
	})
	return err
}
