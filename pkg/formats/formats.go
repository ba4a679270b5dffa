// Package formats reads and writes mesh files for the LOD tools.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshlod/pkg/mesh"
)

// Note: LMSH (mesh snapshot with LOD levels) is implemented in lmsh.go
// Note: Wavefront OBJ import is implemented in obj.go

// ErrUnsupportedFormat is returned for file extensions without a reader.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// LoadMesh reads a mesh file, choosing the reader by extension.
func LoadMesh(path string) (*mesh.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return ParseOBJFile(path)
	case ".lmsh":
		return ParseLMSHFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
