package lod

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshlod/pkg/math"
)

// ProfiledEdge holds the costs computed for one directed edge, in computation order.
type ProfiledEdge struct {
	Src   math.Vec3
	Dst   math.Vec3
	Costs []float32
}

type edgeKey struct {
	src, dst math.Vec3
}

// ProfiledCost records the costs its inner calculator produces, or replays a
// recorded profile instead of calling it. A replayed edge returns its recorded
// costs in order and keeps returning the last one after that, so a single cost
// acts as a fixed override.
type ProfiledCost struct {
	Inner CostCalculator

	record  bool
	profile []ProfiledEdge
	index   map[edgeKey]int
	cursor  []int
	log     *zap.Logger
}

// NewProfileRecorder wraps inner and records every cost it computes.
func NewProfileRecorder(inner CostCalculator) *ProfiledCost {
	return &ProfiledCost{
		Inner:  inner,
		record: true,
		index:  make(map[edgeKey]int),
		log:    zap.NewNop(),
	}
}

// NewProfileReplay wraps inner and substitutes the costs of profile.
func NewProfileReplay(inner CostCalculator, profile []ProfiledEdge, log *zap.Logger) *ProfiledCost {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfiledCost{
		Inner:   inner,
		profile: profile,
		log:     log,
	}
}

// Recording reports whether the calculator records rather than replays.
func (c *ProfiledCost) Recording() bool {
	return c.record
}

// Profile returns the recorded profile.
func (c *ProfiledCost) Profile() []ProfiledEdge {
	out := make([]ProfiledEdge, len(c.profile))
	for i, p := range c.profile {
		out[i] = ProfiledEdge{Src: p.Src, Dst: p.Dst, Costs: append([]float32(nil), p.Costs...)}
	}
	return out
}

// Init implements CostCalculator. In replay mode every entry is checked against
// the topology; entries naming an edge that does not exist are dropped.
func (c *ProfiledCost) Init(d *Data) {
	c.Inner.Init(d)
	if c.record {
		c.profile = c.profile[:0]
		c.index = make(map[edgeKey]int)
		return
	}

	c.index = make(map[edgeKey]int, len(c.profile))
	c.cursor = make([]int, len(c.profile))
	for i, p := range c.profile {
		if err := validateProfiledEdge(d, p); err != nil {
			c.log.Warn("invalid profile entry",
				zap.String("mesh", d.MeshName),
				zap.Int("entry", i),
				zap.Error(err))
			continue
		}
		c.index[edgeKey{p.Src, p.Dst}] = i
	}
}

func validateProfiledEdge(d *Data, p ProfiledEdge) error {
	if len(p.Costs) == 0 {
		return fmt.Errorf("no costs")
	}
	for _, cost := range p.Costs {
		if cost < 0 || cost == UninitializedCost {
			return fmt.Errorf("cost %v out of range", cost)
		}
	}
	src, ok := d.VertexAt(p.Src)
	if !ok {
		return fmt.Errorf("no vertex at src %v", p.Src)
	}
	dst, ok := d.VertexAt(p.Dst)
	if !ok {
		return fmt.Errorf("no vertex at dst %v", p.Dst)
	}
	if d.Vertices[src].Edge(dst) == nil {
		return fmt.Errorf("no edge %v -> %v", p.Src, p.Dst)
	}
	return nil
}

// EdgeCost implements CostCalculator.
func (c *ProfiledCost) EdgeCost(d *Data, src VertexIndex, e *Edge) float32 {
	key := edgeKey{d.Vertices[src].Position, d.Vertices[e.Dst].Position}

	if c.record {
		cost := c.Inner.EdgeCost(d, src, e)
		i, ok := c.index[key]
		if !ok {
			i = len(c.profile)
			c.index[key] = i
			c.profile = append(c.profile, ProfiledEdge{Src: key.src, Dst: key.dst})
		}
		c.profile[i].Costs = append(c.profile[i].Costs, cost)
		return cost
	}

	i, ok := c.index[key]
	if !ok {
		return c.Inner.EdgeCost(d, src, e)
	}
	costs := c.profile[i].Costs
	n := c.cursor[i]
	if n >= len(costs) {
		return costs[len(costs)-1]
	}
	c.cursor[i]++
	return costs[n]
}

// profileFile is the on-disk layout of a cost profile. Values are widened to
// float64 so every float32, including NeverCollapseCost, survives the round trip.
type profileFile struct {
	Mesh  string         `yaml:"mesh"`
	Edges []profileEntry `yaml:"edges"`
}

type profileEntry struct {
	Src   [3]float64 `yaml:"src,flow"`
	Dst   [3]float64 `yaml:"dst,flow"`
	Costs []float64  `yaml:"costs,flow"`
}

func widen(v math.Vec3) [3]float64 {
	return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

func narrow(v [3]float64) math.Vec3 {
	return math.Vec3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// SaveProfile writes a profile as YAML.
func SaveProfile(path, meshName string, profile []ProfiledEdge) error {
	f := profileFile{Mesh: meshName, Edges: make([]profileEntry, len(profile))}
	for i, p := range profile {
		e := &f.Edges[i]
		e.Src, e.Dst = widen(p.Src), widen(p.Dst)
		e.Costs = make([]float64, len(p.Costs))
		for j, c := range p.Costs {
			e.Costs[j] = float64(c)
		}
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProfile reads a profile written by SaveProfile.
func LoadProfile(path string) ([]ProfiledEdge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", path, err)
	}
	profile := make([]ProfiledEdge, len(f.Edges))
	for i, e := range f.Edges {
		p := &profile[i]
		p.Src, p.Dst = narrow(e.Src), narrow(e.Dst)
		p.Costs = make([]float32, len(e.Costs))
		for j, c := range e.Costs {
			p.Costs[j] = float32(c)
		}
	}
	return profile, nil
}
