package lod

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/meshlod/pkg/mesh"
)

// ReductionMethod selects how a level's reduction value is interpreted.
type ReductionMethod int

const (
	// ReductionProportional removes a fraction (0..1) of the collapsible vertices.
	ReductionProportional ReductionMethod = iota
	// ReductionConstant removes a fixed number of vertices.
	ReductionConstant
	// ReductionCollapseCost collapses until the cheapest collapse exceeds the value.
	ReductionCollapseCost
)

// String returns the configuration name of the method.
func (r ReductionMethod) String() string {
	switch r {
	case ReductionProportional:
		return "proportional"
	case ReductionConstant:
		return "constant"
	case ReductionCollapseCost:
		return "collapse_cost"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// ParseReductionMethod parses the names returned by String.
func ParseReductionMethod(s string) (ReductionMethod, error) {
	switch s {
	case "proportional":
		return ReductionProportional, nil
	case "constant":
		return ReductionConstant, nil
	case "collapse_cost", "cost":
		return ReductionCollapseCost, nil
	default:
		return 0, fmt.Errorf("unknown reduction method %q", s)
	}
}

// Level describes one requested LOD level and, after generation, its result.
type Level struct {
	Distance        float32 // user value handed to the mesh's LOD strategy
	ReductionMethod ReductionMethod
	ReductionValue  float32
	ManualMeshName  string // non-empty substitutes another mesh for this level

	OutUniqueVertexCount int
	OutSkipped           bool
}

// IsManual reports whether the level is a pre-authored mesh.
func (l *Level) IsManual() bool {
	return l.ManualMeshName != ""
}

// thresholds returns the vertex count floor and the collapse cost ceiling for the level.
// Exactly one of them restricts collapsing.
func (l *Level) thresholds(vertexCount int) (int, float32) {
	switch l.ReductionMethod {
	case ReductionProportional:
		fraction := min(max(l.ReductionValue, 0), 1)
		removed := int(float32(vertexCount) * fraction)
		return vertexCount - removed, NeverCollapseCost
	case ReductionConstant:
		limit := vertexCount - int(l.ReductionValue)
		return min(max(limit, 0), vertexCount), NeverCollapseCost
	default:
		return 0, l.ReductionValue
	}
}

// AdvancedConfig holds optional generation settings.
type AdvancedConfig struct {
	// UseCompression bakes pairs of levels into one shared buffer.
	UseCompression bool
	// UseVertexNormals enables the normal-based cost refinement when every submesh has normals.
	UseVertexNormals bool
	// OutsideWeight multiplies the cost of collapses that climb out of the surface by more
	// than OutsideWalkAngle degrees. Zero disables the weighting.
	OutsideWeight    float32
	OutsideWalkAngle float32
	// Profile replays recorded collapse costs.
	Profile []ProfiledEdge
	// RecordProfile records every computed cost; read it back with Session.Profile.
	RecordProfile bool
}

// Config is one LOD generation request.
type Config struct {
	Mesh     *mesh.Mesh
	Strategy mesh.LodStrategy
	Levels   []Level
	Advanced AdvancedConfig
}

// NewConfig returns a config for m with the distance strategy, compression and vertex normals enabled.
func NewConfig(m *mesh.Mesh) *Config {
	return &Config{
		Mesh:     m,
		Strategy: mesh.DistanceStrategy{},
		Advanced: AdvancedConfig{
			UseCompression:   true,
			UseVertexNormals: true,
		},
	}
}

// AddGeneratedLevel appends a level produced by edge collapse.
func (c *Config) AddGeneratedLevel(distance float32, method ReductionMethod, value float32) {
	c.Levels = append(c.Levels, Level{
		Distance:        distance,
		ReductionMethod: method,
		ReductionValue:  value,
	})
}

// AddManualLevel appends a level substituted by the named mesh.
func (c *Config) AddManualLevel(distance float32, meshName string) {
	c.Levels = append(c.Levels, Level{
		Distance:       distance,
		ManualMeshName: meshName,
	})
}

// ManualOnly reports whether every level is a manual level.
func (c *Config) ManualOnly() bool {
	if len(c.Levels) == 0 {
		return false
	}
	for i := range c.Levels {
		if !c.Levels[i].IsManual() {
			return false
		}
	}
	return true
}

// Validate checks the request. All problems are reported together.
func (c *Config) Validate() error {
	var err error
	if c.Mesh == nil {
		err = multierr.Append(err, ErrNilMesh)
	} else {
		err = multierr.Append(err, c.Mesh.Validate())
	}
	if c.Strategy == nil {
		return multierr.Append(err, ErrNoStrategy)
	}

	prev := c.Strategy.BaseValue()
	for i := range c.Levels {
		lvl := &c.Levels[i]
		v := c.Strategy.TransformUserValue(lvl.Distance)
		if v < prev {
			err = multierr.Append(err, fmt.Errorf("level %d: %w", i, ErrLevelOrder))
		}
		prev = v

		if lvl.IsManual() {
			continue
		}
		if lvl.ReductionValue < 0 ||
			(lvl.ReductionMethod == ReductionProportional && lvl.ReductionValue > 1) {
			err = multierr.Append(err, fmt.Errorf("level %d: %w: %v %s",
				i, ErrInvalidReduction, lvl.ReductionValue, lvl.ReductionMethod))
		}
	}
	return err
}
