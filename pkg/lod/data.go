package lod

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlod/pkg/math"
	"github.com/Faultbox/meshlod/pkg/mesh"
)

// VertexIndex addresses a vertex in Data.Vertices.
type VertexIndex int32

// TriangleIndex addresses a triangle in Data.Triangles.
type TriangleIndex int32

// NoVertex marks a missing collapse target.
const NoVertex VertexIndex = -1

// Edge is a directed edge towards Dst.
type Edge struct {
	Dst          VertexIndex
	RefCount     int // triangles sharing the pair; 1 marks a border edge
	CollapseCost float32
}

// Vertex is a unique position of the input mesh.
type Vertex struct {
	Position  math.Vec3
	Normal    math.Vec3
	Triangles []TriangleIndex
	Edges     []Edge // at most one edge per destination
	Seam      bool   // merged from several input vertices

	CollapseTo   VertexIndex
	CollapseCost float32

	heapIndex int // -1 while outside the cost heap
	collapsed bool
}

// Edge returns the edge towards dst, or nil.
func (v *Vertex) Edge(dst VertexIndex) *Edge {
	for i := range v.Edges {
		if v.Edges[i].Dst == dst {
			return &v.Edges[i]
		}
	}
	return nil
}

// IsBorder reports whether any outgoing edge is used by a single triangle.
func (v *Vertex) IsBorder() bool {
	for i := range v.Edges {
		if v.Edges[i].RefCount == 1 {
			return true
		}
	}
	return false
}

// Collapsed reports whether the vertex has been merged into another one.
func (v *Vertex) Collapsed() bool {
	return v.collapsed
}

// Triangle references three vertices and the index buffer entries they came from.
type Triangle struct {
	Vertex    [3]VertexIndex
	VertexID  [3]uint32 // index buffer values, written back when baking
	Normal    math.Vec3
	SubmeshID int
	Removed   bool
}

// HasVertex reports whether v is a corner of the triangle.
func (t *Triangle) HasVertex(v VertexIndex) bool {
	return t.Vertex[0] == v || t.Vertex[1] == v || t.Vertex[2] == v
}

// slot returns the corner holding v, or -1.
func (t *Triangle) slot(v VertexIndex) int {
	for i, tv := range t.Vertex {
		if tv == v {
			return i
		}
	}
	return -1
}

func (t *Triangle) isMalformed() bool {
	return t.Vertex[0] == t.Vertex[1] || t.Vertex[0] == t.Vertex[2] || t.Vertex[1] == t.Vertex[2]
}

// IndexBufferInfo tracks the live index count of one submesh.
type IndexBufferInfo struct {
	IndexType  mesh.IndexType
	IndexCount int
}

// Data is the vertex/edge/triangle graph of one session.
// Vertices and Triangles are reserved up front and never grow past their capacity.
type Data struct {
	MeshName        string
	Vertices        []Vertex
	Triangles       []Triangle
	IndexBufferInfo []IndexBufferInfo

	// UseVertexNormals is set when every submesh supplied normals and the config asks for them.
	UseVertexNormals bool
	// InputVertexCount is the number of vertices read before merging coincident positions.
	InputVertexCount int

	unique map[math.Vec3]VertexIndex
	heap   costHeap
	log    *zap.Logger
}

// NewData creates an empty topology.
func NewData(meshName string, log *zap.Logger) *Data {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Data{
		MeshName: meshName,
		unique:   make(map[math.Vec3]VertexIndex),
		log:      log,
	}
	d.heap.d = d
	return d
}

// VertexCount returns the number of unique vertices.
func (d *Data) VertexCount() int {
	return len(d.Vertices)
}

// LiveVertexCount returns the number of vertices that can still be collapsed.
func (d *Data) LiveVertexCount() int {
	return d.heap.Len()
}

// LiveTriangleCount returns the number of triangles that are not removed.
func (d *Data) LiveTriangleCount() int {
	n := 0
	for i := range d.Triangles {
		if !d.Triangles[i].Removed {
			n++
		}
	}
	return n
}

// VertexAt returns the vertex at a position.
func (d *Data) VertexAt(pos math.Vec3) (VertexIndex, bool) {
	v, ok := d.unique[pos]
	return v, ok
}

func (d *Data) reserve(vertices, triangles, submeshes int) {
	d.Vertices = make([]Vertex, 0, vertices)
	d.Triangles = make([]Triangle, 0, triangles)
	d.IndexBufferInfo = make([]IndexBufferInfo, submeshes)
}

// addVertex returns the vertex at pos, creating it if needed.
func (d *Data) addVertex(pos, normal math.Vec3) (VertexIndex, error) {
	d.InputVertexCount++
	if idx, ok := d.unique[pos]; ok {
		v := &d.Vertices[idx]
		v.Seam = true
		v.Normal = v.Normal.Add(normal)
		return idx, nil
	}
	if len(d.Vertices) == cap(d.Vertices) {
		return NoVertex, ErrTooManyVertices
	}
	idx := VertexIndex(len(d.Vertices))
	d.Vertices = append(d.Vertices, Vertex{
		Position:     pos,
		Normal:       normal,
		CollapseTo:   NoVertex,
		CollapseCost: UninitializedCost,
		heapIndex:    -1,
	})
	d.unique[pos] = idx
	return idx, nil
}

// addTriangle appends a triangle and wires it into the graph. Malformed and duplicate
// triangles are kept as removed entries and dropped from the live index count.
func (d *Data) addTriangle(submesh int, ids [3]uint32, lookup []VertexIndex) error {
	info := &d.IndexBufferInfo[submesh]
	for _, id := range ids {
		if int(id) >= len(lookup) {
			invariant(false, "index %d out of range (%d vertices) in %s", id, len(lookup), d.MeshName)
			d.log.Warn("triangle index out of range",
				zap.String("mesh", d.MeshName),
				zap.Int("submesh", submesh),
				zap.Uint32("index", id),
				zap.Int("vertices", len(lookup)))
			info.IndexCount -= 3
			return nil
		}
	}
	if len(d.Triangles) == cap(d.Triangles) {
		return ErrTooManyTriangles
	}

	ti := TriangleIndex(len(d.Triangles))
	d.Triangles = append(d.Triangles, Triangle{
		Vertex:    [3]VertexIndex{lookup[ids[0]], lookup[ids[1]], lookup[ids[2]]},
		VertexID:  ids,
		SubmeshID: submesh,
	})
	t := &d.Triangles[ti]

	if t.isMalformed() {
		d.log.Debug("malformed triangle",
			zap.String("mesh", d.MeshName),
			zap.Int("submesh", submesh),
			zap.Int("triangle", int(ti)))
		t.Removed = true
		info.IndexCount -= 3
		return nil
	}

	d.computeNormal(ti)
	if d.isDuplicateTriangle(ti) {
		d.log.Debug("duplicate triangle",
			zap.String("mesh", d.MeshName),
			zap.Int("submesh", submesh),
			zap.Int("triangle", int(ti)))
		t.Removed = true
		info.IndexCount -= 3
		return nil
	}

	for _, v := range t.Vertex {
		d.Vertices[v].Triangles = append(d.Vertices[v].Triangles, ti)
	}
	d.addTriangleEdges(t)
	return nil
}

func (d *Data) isDuplicateTriangle(ti TriangleIndex) bool {
	t := &d.Triangles[ti]
	for _, other := range d.Vertices[t.Vertex[0]].Triangles {
		o := &d.Triangles[other]
		if o.HasVertex(t.Vertex[1]) && o.HasVertex(t.Vertex[2]) {
			return true
		}
	}
	return false
}

func (d *Data) computeNormal(ti TriangleIndex) {
	t := &d.Triangles[ti]
	t.Normal = math.TriangleNormal(
		d.Vertices[t.Vertex[0]].Position,
		d.Vertices[t.Vertex[1]].Position,
		d.Vertices[t.Vertex[2]].Position,
	)
}

// addEdge adds the edge v->dst or increments its reference count.
func (d *Data) addEdge(v, dst VertexIndex) {
	vert := &d.Vertices[v]
	if e := vert.Edge(dst); e != nil {
		e.RefCount++
		return
	}
	vert.Edges = append(vert.Edges, Edge{Dst: dst, RefCount: 1, CollapseCost: UninitializedCost})
}

// removeEdge decrements the edge v->dst and drops it at zero.
func (d *Data) removeEdge(v, dst VertexIndex) {
	vert := &d.Vertices[v]
	for i := range vert.Edges {
		if vert.Edges[i].Dst != dst {
			continue
		}
		vert.Edges[i].RefCount--
		if vert.Edges[i].RefCount == 0 {
			vert.Edges = slices.Delete(vert.Edges, i, i+1)
		}
		return
	}
	invariant(false, "edge %d->%d not found", v, dst)
}

func (d *Data) addTriangleEdges(t *Triangle) {
	for i := 0; i < 3; i++ {
		a, b := t.Vertex[i], t.Vertex[(i+1)%3]
		d.addEdge(a, b)
		d.addEdge(b, a)
	}
}

func (d *Data) removeTriangleEdges(t *Triangle) {
	for i := 0; i < 3; i++ {
		a, b := t.Vertex[i], t.Vertex[(i+1)%3]
		d.removeEdge(a, b)
		d.removeEdge(b, a)
	}
}

// removeTriangle detaches a live triangle from its vertices and edges.
func (d *Data) removeTriangle(ti TriangleIndex) {
	t := &d.Triangles[ti]
	d.removeTriangleEdges(t)
	for _, v := range t.Vertex {
		d.detachTriangle(v, ti)
	}
	t.Removed = true
	d.IndexBufferInfo[t.SubmeshID].IndexCount -= 3
}

// replaceVertex moves corner slot of a live triangle to vertex dst with index buffer value id.
func (d *Data) replaceVertex(ti TriangleIndex, slot int, dst VertexIndex, id uint32) {
	t := &d.Triangles[ti]
	src := t.Vertex[slot]
	d.removeTriangleEdges(t)
	d.detachTriangle(src, ti)

	t.Vertex[slot] = dst
	t.VertexID[slot] = id
	d.Vertices[dst].Triangles = append(d.Vertices[dst].Triangles, ti)
	d.addTriangleEdges(t)
	d.computeNormal(ti)
}

func (d *Data) detachTriangle(v VertexIndex, ti TriangleIndex) {
	tris := d.Vertices[v].Triangles
	if i := slices.Index(tris, ti); i >= 0 {
		d.Vertices[v].Triangles = slices.Delete(tris, i, i+1)
	}
}

// normalizeVertexNormals renormalises the normals accumulated from coincident input vertices.
func (d *Data) normalizeVertexNormals() {
	for i := range d.Vertices {
		d.Vertices[i].Normal = d.Vertices[i].Normal.Normalize()
	}
}

// surfaceNormal returns the vertex normal, or the mean of its face normals when
// vertex normals are not in use.
func (d *Data) surfaceNormal(v VertexIndex) math.Vec3 {
	vert := &d.Vertices[v]
	if d.UseVertexNormals && !vert.Normal.IsZero() {
		return vert.Normal
	}
	var sum math.Vec3
	for _, ti := range vert.Triangles {
		sum = sum.Add(d.Triangles[ti].Normal)
	}
	return sum.Normalize()
}
