// Package mesh provides the host-side mesh resource that LOD generation reads from and writes to.
package mesh

import (
	"errors"
	"fmt"
)

// Mesh errors.
var (
	ErrUnsupportedIndexType = errors.New("unsupported index type")
	ErrUnsupportedOperation = errors.New("unsupported operation type")
	ErrMissingVertexData    = errors.New("submesh has no vertex data")
	ErrMissingIndexData     = errors.New("submesh has no index data")
)

// OperationType is the primitive topology of an index stream.
type OperationType uint8

const (
	TriangleList  OperationType = 0
	TriangleStrip OperationType = 1
	TriangleFan   OperationType = 2
)

// String returns a human-readable topology name.
func (o OperationType) String() string {
	switch o {
	case TriangleList:
		return "List"
	case TriangleStrip:
		return "Strip"
	case TriangleFan:
		return "Fan"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(o))
	}
}

// TriangleCount returns how many triangles an index stream of n indices describes.
func (o OperationType) TriangleCount(n int) int {
	switch o {
	case TriangleList:
		return n / 3
	case TriangleStrip, TriangleFan:
		if n < 3 {
			return 0
		}
		return n - 2
	default:
		return 0
	}
}

// VertexData wraps a vertex buffer.
type VertexData struct {
	Buffer *VertexBuffer
}

// VertexCount returns the number of vertices.
func (d *VertexData) VertexCount() int {
	if d == nil || d.Buffer == nil {
		return 0
	}
	return d.Buffer.VertexCount()
}

// IndexData is a range of an index buffer.
type IndexData struct {
	Buffer *IndexBuffer
	Start  int
	Count  int
}

// Indices copies the indices of the range. Returns nil for an empty placeholder.
func (d *IndexData) Indices() []uint32 {
	if d == nil || d.Buffer == nil || d.Count == 0 {
		return nil
	}
	d.Buffer.RLock()
	defer d.Buffer.RUnlock()
	return d.Buffer.ReadRange(d.Start, d.Count)
}

// SubMesh is one drawing batch of a mesh.
type SubMesh struct {
	MaterialName      string
	UseSharedVertices bool
	VertexData        *VertexData // dedicated vertices, nil when UseSharedVertices
	IndexData         *IndexData
	Operation         OperationType

	// LodFaceList holds one entry per LOD level after the full-detail one.
	// Generated levels are triangle lists; manual levels are empty placeholders.
	LodFaceList []*IndexData
}

// Mesh is a renderable triangle mesh resource.
type Mesh struct {
	Name             string
	SharedVertexData *VertexData
	SubMeshes        []*SubMesh
	BoundingRadius   float32

	LodStrategy LodStrategy
	LodUsages   []LodUsage // LodUsages[0] is the full-detail mesh

	edgeLists [][]Edge
}

// Vertices returns the vertex data a submesh reads from.
func (m *Mesh) Vertices(sm *SubMesh) *VertexData {
	if sm.UseSharedVertices {
		return m.SharedVertexData
	}
	return sm.VertexData
}

// NumLodLevels returns the number of LOD levels including the full-detail level.
func (m *Mesh) NumLodLevels() int {
	if len(m.LodUsages) == 0 {
		return 1
	}
	return len(m.LodUsages)
}

// ClearLods removes generated and manual LOD levels.
func (m *Mesh) ClearLods() {
	for _, sm := range m.SubMeshes {
		sm.LodFaceList = nil
	}
	m.LodUsages = nil
}

// Validate checks that every submesh references vertex and index data of known types.
func (m *Mesh) Validate() error {
	for i, sm := range m.SubMeshes {
		if m.Vertices(sm) == nil || m.Vertices(sm).Buffer == nil {
			return fmt.Errorf("submesh %d: %w", i, ErrMissingVertexData)
		}
		if sm.IndexData == nil || sm.IndexData.Buffer == nil {
			return fmt.Errorf("submesh %d: %w", i, ErrMissingIndexData)
		}
		if sm.IndexData.Buffer.Type().Size() == 0 {
			return fmt.Errorf("submesh %d: %w: %s", i, ErrUnsupportedIndexType, sm.IndexData.Buffer.Type())
		}
		if sm.Operation > TriangleFan {
			return fmt.Errorf("submesh %d: %w: %s", i, ErrUnsupportedOperation, sm.Operation)
		}
	}
	return nil
}
