// Wavefront OBJ importer for triangle meshes.

package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/meshlod/pkg/math"
	"github.com/Faultbox/meshlod/pkg/mesh"
)

// OBJ format errors.
var (
	ErrInvalidOBJLine  = errors.New("invalid OBJ statement")
	ErrOBJIndexRange   = errors.New("OBJ index out of range")
	ErrEmptyOBJ        = errors.New("OBJ file has no faces")
	ErrTooManyOBJVerts = errors.New("OBJ vertex count exceeds 32-bit indices")
)

// objCorner is one face corner: a position and an optional normal, both 0-based.
type objCorner struct {
	pos, normal int
}

type objGroup struct {
	material string
	indices  []uint32
}

type objParser struct {
	positions []math.Vec3
	normals   []math.Vec3

	vertices   map[objCorner]uint32
	corners    []objCorner
	allNormals bool

	groups []*objGroup
	group  *objGroup
}

// ParseOBJ reads an OBJ stream into a mesh with shared vertices and one submesh
// per material. Polygons are fan-triangulated; texture coordinates are ignored.
// Corners sharing a position but not a normal become separate vertices.
func ParseOBJ(r io.Reader, name string) (*mesh.Mesh, error) {
	p := &objParser{
		vertices:   make(map[objCorner]uint32),
		allNormals: true,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	return p.build(name)
}

// ParseOBJFile loads an OBJ file, naming the mesh after the file.
func ParseOBJFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseOBJ(f, name)
}

func (p *objParser) parseLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return err
		}
		p.positions = append(p.positions, v)
	case "vn":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return err
		}
		p.normals = append(p.normals, v)
	case "usemtl":
		material := ""
		if len(fields) > 1 {
			material = fields[1]
		}
		p.useMaterial(material)
	case "f":
		return p.parseFace(fields[1:])
	}
	// vt, o, g, s, mtllib and unknown statements are ignored
	return nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("%w: expected 3 coordinates, got %d", ErrInvalidOBJLine, len(fields))
	}
	var c [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %v", ErrInvalidOBJLine, err)
		}
		c[i] = float32(f)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

func (p *objParser) useMaterial(material string) {
	for _, g := range p.groups {
		if g.material == material {
			p.group = g
			return
		}
	}
	p.group = &objGroup{material: material}
	p.groups = append(p.groups, p.group)
}

func (p *objParser) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("%w: face needs 3 corners, got %d", ErrInvalidOBJLine, len(fields))
	}
	if p.group == nil {
		p.useMaterial("")
	}

	ids := make([]uint32, len(fields))
	for i, field := range fields {
		corner, err := p.parseCorner(field)
		if err != nil {
			return err
		}
		ids[i] = p.vertex(corner)
	}
	for i := 1; i+1 < len(ids); i++ {
		p.group.indices = append(p.group.indices, ids[0], ids[i], ids[i+1])
	}
	return nil
}

// parseCorner parses v, v/vt, v//vn or v/vt/vn. Negative indices count from the end.
func (p *objParser) parseCorner(field string) (objCorner, error) {
	parts := strings.Split(field, "/")
	pos, err := resolveOBJIndex(parts[0], len(p.positions))
	if err != nil {
		return objCorner{}, err
	}
	corner := objCorner{pos: pos, normal: -1}
	if len(parts) == 3 && parts[2] != "" {
		corner.normal, err = resolveOBJIndex(parts[2], len(p.normals))
		if err != nil {
			return objCorner{}, err
		}
	} else {
		p.allNormals = false
	}
	return corner, nil
}

func resolveOBJIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOBJLine, err)
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	default:
		return 0, fmt.Errorf("%w: %d of %d", ErrOBJIndexRange, i, n)
	}
}

func (p *objParser) vertex(c objCorner) uint32 {
	if id, ok := p.vertices[c]; ok {
		return id
	}
	id := uint32(len(p.corners))
	p.vertices[c] = id
	p.corners = append(p.corners, c)
	return id
}

func (p *objParser) build(name string) (*mesh.Mesh, error) {
	if len(p.corners) == 0 {
		return nil, ErrEmptyOBJ
	}
	if uint64(len(p.corners)) > 1<<32-1 {
		return nil, ErrTooManyOBJVerts
	}

	positions := make([]float32, 0, len(p.corners)*3)
	var normals []float32
	if p.allNormals {
		normals = make([]float32, 0, len(p.corners)*3)
	}
	var radius float32
	for _, c := range p.corners {
		v := p.positions[c.pos]
		positions = append(positions, v.X, v.Y, v.Z)
		radius = math.Max(radius, v.Length())
		if p.allNormals {
			n := p.normals[c.normal].Normalize()
			normals = append(normals, n.X, n.Y, n.Z)
		}
	}

	indexType := mesh.IndexType32
	if len(p.corners) <= 1<<16 {
		indexType = mesh.IndexType16
	}

	m := &mesh.Mesh{
		Name:             name,
		SharedVertexData: &mesh.VertexData{Buffer: mesh.NewVertexBuffer(positions, normals)},
		BoundingRadius:   radius,
	}
	for _, g := range p.groups {
		if len(g.indices) == 0 {
			continue
		}
		ib, err := mesh.NewIndexBufferFrom(indexType, g.indices)
		if err != nil {
			return nil, err
		}
		m.SubMeshes = append(m.SubMeshes, &mesh.SubMesh{
			MaterialName:      g.material,
			UseSharedVertices: true,
			IndexData:         &mesh.IndexData{Buffer: ib, Count: len(g.indices)},
			Operation:         mesh.TriangleList,
		})
	}
	return m, nil
}
