package mesh

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/Faultbox/meshlod/pkg/math"
)

// IndexType is the width of one index in an index buffer.
type IndexType uint8

const (
	IndexType16 IndexType = 16
	IndexType32 IndexType = 32
)

// Size returns the byte size of one index, or 0 for an unknown type.
func (t IndexType) Size() int {
	switch t {
	case IndexType16:
		return 2
	case IndexType32:
		return 4
	default:
		return 0
	}
}

// String returns a human-readable index type name.
func (t IndexType) String() string {
	switch t {
	case IndexType16:
		return "16bit"
	case IndexType32:
		return "32bit"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// VertexBuffer holds flat position and optional normal streams (3 floats per vertex).
// Readers hold RLock for the duration of a copy; writers hold Lock.
type VertexBuffer struct {
	sync.RWMutex
	Positions []float32
	Normals   []float32 // nil when the buffer has no normals
}

// NewVertexBuffer creates a vertex buffer. normals may be nil.
func NewVertexBuffer(positions, normals []float32) *VertexBuffer {
	return &VertexBuffer{Positions: positions, Normals: normals}
}

// VertexCount returns the number of vertices.
func (b *VertexBuffer) VertexCount() int {
	return len(b.Positions) / 3
}

// HasNormals reports whether a normal is stored for every vertex.
func (b *VertexBuffer) HasNormals() bool {
	return len(b.Normals) > 0 && len(b.Normals) == len(b.Positions)
}

// Position returns the position of vertex i.
func (b *VertexBuffer) Position(i int) math.Vec3 {
	return math.Vec3FromSlice(b.Positions, i)
}

// IndexBuffer stores little-endian indices of a fixed width.
type IndexBuffer struct {
	sync.RWMutex
	typ  IndexType
	data []byte
}

// NewIndexBuffer allocates a zeroed index buffer holding count indices.
func NewIndexBuffer(typ IndexType, count int) (*IndexBuffer, error) {
	if typ.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIndexType, typ)
	}
	return &IndexBuffer{typ: typ, data: make([]byte, count*typ.Size())}, nil
}

// NewIndexBufferFrom creates an index buffer holding the given indices.
func NewIndexBufferFrom(typ IndexType, indices []uint32) (*IndexBuffer, error) {
	b, err := NewIndexBuffer(typ, len(indices))
	if err != nil {
		return nil, err
	}
	for i, v := range indices {
		b.SetIndex(i, v)
	}
	return b, nil
}

// Type returns the index width.
func (b *IndexBuffer) Type() IndexType {
	return b.typ
}

// Len returns the number of indices the buffer holds.
func (b *IndexBuffer) Len() int {
	return len(b.data) / b.typ.Size()
}

// Index returns index i.
func (b *IndexBuffer) Index(i int) uint32 {
	if b.typ == IndexType16 {
		return uint32(binary.LittleEndian.Uint16(b.data[i*2:]))
	}
	return binary.LittleEndian.Uint32(b.data[i*4:])
}

// SetIndex writes index i. 16-bit buffers truncate v.
func (b *IndexBuffer) SetIndex(i int, v uint32) {
	if b.typ == IndexType16 {
		binary.LittleEndian.PutUint16(b.data[i*2:], uint16(v))
		return
	}
	binary.LittleEndian.PutUint32(b.data[i*4:], v)
}

// Bytes returns the raw buffer contents.
func (b *IndexBuffer) Bytes() []byte {
	return b.data
}

// ReadRange copies count indices starting at start.
func (b *IndexBuffer) ReadRange(start, count int) []uint32 {
	out := make([]uint32, count)
	for i := range out {
		out[i] = b.Index(start + i)
	}
	return out
}
