// LMSH mesh snapshot format: geometry, baked LOD index lists and the LOD usage table.

package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/meshlod/pkg/mesh"
)

// LMSH format errors.
var (
	ErrInvalidLMSHMagic       = errors.New("invalid LMSH magic: expected 'LMSH'")
	ErrUnsupportedLMSHVersion = errors.New("unsupported LMSH version")
	ErrTruncatedLMSHData      = errors.New("truncated LMSH data")
	ErrInvalidLMSHCount       = errors.New("invalid LMSH element count")
)

// LMSHVersion is the version written by EncodeLMSH.
const LMSHVersion uint16 = 1

const (
	lmshMagic    = "LMSH"
	maxLMSHCount = 1 << 26
)

// EncodeLMSH serialises m, including its LOD levels, into the LMSH layout.
func EncodeLMSH(m *mesh.Mesh) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.Name, err)
	}

	buf := new(bytes.Buffer)
	w := &lmshWriter{w: buf}

	buf.WriteString(lmshMagic)
	w.put(LMSHVersion)
	w.putString(m.Name)
	w.put(m.BoundingRadius)

	strategy := ""
	if m.LodStrategy != nil {
		strategy = m.LodStrategy.Name()
	}
	w.putString(strategy)

	w.putVertices(m.SharedVertexData)

	w.put(uint32(len(m.SubMeshes)))
	for _, sm := range m.SubMeshes {
		w.putString(sm.MaterialName)
		w.putBool(sm.UseSharedVertices)
		if !sm.UseSharedVertices {
			w.putVertices(sm.VertexData)
		}
		w.put(uint8(sm.Operation))
		w.put(uint8(sm.IndexData.Buffer.Type()))
		w.putIndices(sm.IndexData.Buffer.Type(), sm.IndexData.Indices())

		w.put(uint32(len(sm.LodFaceList)))
		for _, lod := range sm.LodFaceList {
			w.putIndices(sm.IndexData.Buffer.Type(), lod.Indices())
		}
	}

	w.put(uint32(len(m.LodUsages)))
	for _, u := range m.LodUsages {
		w.put(u.UserValue)
		w.put(u.Value)
		w.putString(u.ManualName)
	}

	if w.err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.Name, w.err)
	}
	return buf.Bytes(), nil
}

// WriteLMSHFile writes m to path.
func WriteLMSHFile(path string, m *mesh.Mesh) error {
	data, err := EncodeLMSH(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseLMSH parses LMSH data into a mesh. Edge lists are not stored and must be rebuilt.
func ParseLMSH(data []byte) (*mesh.Mesh, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedLMSHData
	}

	r := &lmshReader{r: bytes.NewReader(data)}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r.r, magic); err != nil {
		return nil, ErrTruncatedLMSHData
	}
	if string(magic) != lmshMagic {
		return nil, ErrInvalidLMSHMagic
	}

	var version uint16
	r.get(&version)
	if version != LMSHVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedLMSHVersion, version)
	}

	m := &mesh.Mesh{}
	m.Name = r.getString()
	r.get(&m.BoundingRadius)
	strategyName := r.getString()
	m.SharedVertexData = r.getVertices()

	subMeshCount := r.getCount()
	m.SubMeshes = make([]*mesh.SubMesh, 0, subMeshCount)
	for i := 0; i < subMeshCount && r.err == nil; i++ {
		sm, err := parseLMSHSubMesh(r)
		if err != nil {
			return nil, fmt.Errorf("parsing submesh %d: %w", i, err)
		}
		m.SubMeshes = append(m.SubMeshes, sm)
	}

	usageCount := r.getCount()
	for i := 0; i < usageCount && r.err == nil; i++ {
		var u mesh.LodUsage
		r.get(&u.UserValue)
		r.get(&u.Value)
		u.ManualName = r.getString()
		m.LodUsages = append(m.LodUsages, u)
	}

	if r.err != nil {
		return nil, r.err
	}
	if strategyName != "" {
		strategy, ok := mesh.StrategyByName(strategyName)
		if !ok {
			return nil, fmt.Errorf("unknown lod strategy %q", strategyName)
		}
		m.LodStrategy = strategy
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseLMSHFile loads and parses an LMSH file.
func ParseLMSHFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading LMSH file: %w", err)
	}
	return ParseLMSH(data)
}

func parseLMSHSubMesh(r *lmshReader) (*mesh.SubMesh, error) {
	sm := &mesh.SubMesh{}
	sm.MaterialName = r.getString()
	sm.UseSharedVertices = r.getBool()
	if !sm.UseSharedVertices {
		sm.VertexData = r.getVertices()
	}

	var op, typ uint8
	r.get(&op)
	r.get(&typ)
	sm.Operation = mesh.OperationType(op)
	indexType := mesh.IndexType(typ)
	if r.err != nil {
		return nil, r.err
	}
	if indexType.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", mesh.ErrUnsupportedIndexType, indexType)
	}

	data, err := r.getIndexData(indexType)
	if err != nil {
		return nil, err
	}
	sm.IndexData = data

	lodCount := r.getCount()
	for i := 0; i < lodCount && r.err == nil; i++ {
		lod, err := r.getIndexData(indexType)
		if err != nil {
			return nil, fmt.Errorf("lod %d: %w", i, err)
		}
		if lod.Count == 0 {
			// manual level placeholder
			lod = &mesh.IndexData{}
		}
		sm.LodFaceList = append(sm.LodFaceList, lod)
	}
	return sm, r.err
}

// lmshWriter writes little-endian values and keeps the first error.
type lmshWriter struct {
	w   io.Writer
	err error
}

func (w *lmshWriter) put(v interface{}) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.LittleEndian, v)
}

func (w *lmshWriter) putBool(b bool) {
	var v uint8
	if b {
		v = 1
	}
	w.put(v)
}

func (w *lmshWriter) putString(s string) {
	w.put(uint16(len(s)))
	w.put([]byte(s))
}

func (w *lmshWriter) putVertices(vd *mesh.VertexData) {
	if vd == nil || vd.Buffer == nil {
		w.put(uint32(0))
		w.putBool(false)
		return
	}
	vb := vd.Buffer
	vb.RLock()
	defer vb.RUnlock()
	w.put(uint32(vb.VertexCount()))
	w.putBool(vb.HasNormals())
	w.put(vb.Positions[:vb.VertexCount()*3])
	if vb.HasNormals() {
		w.put(vb.Normals[:vb.VertexCount()*3])
	}
}

func (w *lmshWriter) putIndices(typ mesh.IndexType, indices []uint32) {
	w.put(uint32(len(indices)))
	if typ == mesh.IndexType16 {
		narrow := make([]uint16, len(indices))
		for i, v := range indices {
			narrow[i] = uint16(v)
		}
		w.put(narrow)
		return
	}
	w.put(indices)
}

// lmshReader reads little-endian values and keeps the first error.
type lmshReader struct {
	r   *bytes.Reader
	err error
}

func (r *lmshReader) get(v interface{}) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		r.err = ErrTruncatedLMSHData
	}
}

func (r *lmshReader) getBool() bool {
	var v uint8
	r.get(&v)
	return v != 0
}

func (r *lmshReader) getString() string {
	var n uint16
	r.get(&n)
	if r.err != nil || n == 0 {
		return ""
	}
	b := make([]byte, n)
	r.get(b)
	return string(b)
}

// getCount reads an element count, rejecting values the remaining data cannot hold.
func (r *lmshReader) getCount() int {
	var n uint32
	r.get(&n)
	if r.err != nil {
		return 0
	}
	if n > maxLMSHCount || int(n) > r.r.Len() {
		r.err = fmt.Errorf("%w: %d", ErrInvalidLMSHCount, n)
		return 0
	}
	return int(n)
}

func (r *lmshReader) getVertices() *mesh.VertexData {
	n := r.getCount()
	hasNormals := r.getBool()
	if r.err != nil || n == 0 {
		return nil
	}
	positions := make([]float32, n*3)
	r.get(positions)
	var normals []float32
	if hasNormals {
		normals = make([]float32, n*3)
		r.get(normals)
	}
	return &mesh.VertexData{Buffer: mesh.NewVertexBuffer(positions, normals)}
}

func (r *lmshReader) getIndexData(typ mesh.IndexType) (*mesh.IndexData, error) {
	n := r.getCount()
	if r.err != nil {
		return nil, r.err
	}
	indices := make([]uint32, n)
	if typ == mesh.IndexType16 {
		narrow := make([]uint16, n)
		r.get(narrow)
		for i, v := range narrow {
			indices[i] = uint32(v)
		}
	} else {
		r.get(indices)
	}
	if r.err != nil {
		return nil, r.err
	}
	buf, err := mesh.NewIndexBufferFrom(typ, indices)
	if err != nil {
		return nil, err
	}
	return &mesh.IndexData{Buffer: buf, Count: n}, nil
}
