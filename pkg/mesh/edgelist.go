package mesh

// Edge is an undirected edge of a LOD level. V0 < V1.
type Edge struct {
	VertexSet int // -1 for shared vertex data, otherwise the submesh index
	V0, V1    uint32
	Triangles int // triangles using the edge; 1 marks an open edge
}

// ForEachTriangle enumerates the triangles of an index stream as index triples.
// Strips alternate winding so every triangle keeps the orientation of the first one.
func ForEachTriangle(op OperationType, indices []uint32, fn func(a, b, c uint32)) {
	switch op {
	case TriangleList:
		for i := 0; i+2 < len(indices); i += 3 {
			fn(indices[i], indices[i+1], indices[i+2])
		}
	case TriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				fn(indices[i], indices[i+1], indices[i+2])
			} else {
				fn(indices[i+1], indices[i], indices[i+2])
			}
		}
	case TriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			fn(indices[0], indices[i], indices[i+1])
		}
	}
}

// HasEdgeLists reports whether BuildEdgeLists has been called.
func (m *Mesh) HasEdgeLists() bool {
	return m.edgeLists != nil
}

// EdgeList returns the edges of a LOD level, or nil if none were built.
func (m *Mesh) EdgeList(lod int) []Edge {
	if lod < 0 || lod >= len(m.edgeLists) {
		return nil
	}
	return m.edgeLists[lod]
}

// BuildEdgeLists computes the edge list of every LOD level. Manual levels get an empty list.
func (m *Mesh) BuildEdgeLists() {
	lods := m.NumLodLevels()
	m.edgeLists = make([][]Edge, lods)
	for lod := 0; lod < lods; lod++ {
		m.edgeLists[lod] = m.buildEdgeList(lod)
	}
}

func (m *Mesh) buildEdgeList(lod int) []Edge {
	type key struct {
		set    int
		v0, v1 uint32
	}
	seen := make(map[key]int)
	edges := []Edge{}

	for i, sm := range m.SubMeshes {
		set := i
		if sm.UseSharedVertices {
			set = -1
		}

		data, op := sm.IndexData, sm.Operation
		if lod > 0 {
			if lod-1 >= len(sm.LodFaceList) {
				continue
			}
			data, op = sm.LodFaceList[lod-1], TriangleList
		}

		ForEachTriangle(op, data.Indices(), func(a, b, c uint32) {
			if a == b || b == c || a == c {
				return
			}
			for _, p := range [3][2]uint32{{a, b}, {b, c}, {c, a}} {
				k := key{set, min(p[0], p[1]), max(p[0], p[1])}
				if idx, ok := seen[k]; ok {
					edges[idx].Triangles++
					continue
				}
				seen[k] = len(edges)
				edges = append(edges, Edge{VertexSet: set, V0: k.v0, V1: k.v1, Triangles: 1})
			}
		})
	}
	return edges
}
