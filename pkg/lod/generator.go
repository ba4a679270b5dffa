package lod

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlod/pkg/mesh"
)

// Generator creates and runs LOD generation sessions.
type Generator struct {
	log *zap.Logger

	queueOnce sync.Once
	queue     *Queue
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger sessions report to.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGenerator creates a generator. Without WithLogger it logs nothing.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session is the state of one mesh's LOD generation.
type Session struct {
	Config     *Config
	Data       *Data
	Input      InputProvider
	Calculator CostCalculator
	Output     OutputProvider
	Collapser  *Collapser

	log      *zap.Logger
	injected bool
}

// NewSession wires a session for cfg reading from input.
func (g *Generator) NewSession(cfg *Config, input InputProvider) *Session {
	log := g.log.With(zap.String("mesh", cfg.Mesh.Name))
	return &Session{
		Config:     cfg,
		Data:       NewData(cfg.Mesh.Name, log),
		Input:      input,
		Calculator: NewCostCalculator(cfg.Advanced, log),
		Output:     NewOutputProvider(cfg.Advanced),
		Collapser:  NewCollapser(log),
		log:        log,
	}
}

// Generate builds the levels of cfg from the live mesh and injects them.
// Configs made only of manual levels skip simplification entirely.
func (g *Generator) Generate(cfg *Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("generating lods: %w", err)
	}
	if cfg.ManualOnly() {
		return g.generateManual(cfg)
	}

	s := g.NewSession(cfg, &MeshInput{Mesh: cfg.Mesh})
	if err := s.Run(); err != nil {
		return nil, err
	}
	if err := s.Inject(); err != nil {
		return nil, err
	}
	return s, nil
}

// GenerateAuto generates the levels returned by AutoConfig.
func (g *Generator) GenerateAuto(m *mesh.Mesh) (*Session, error) {
	return g.Generate(AutoConfig(m))
}

// Run populates the topology and bakes every level. It does not touch the mesh
// resource beyond what the input provider reads; call Inject afterwards.
func (s *Session) Run() error {
	cfg := s.Config
	d := s.Data

	if err := s.Input.Populate(d); err != nil {
		return err
	}
	if !cfg.Advanced.UseVertexNormals {
		d.UseVertexNormals = false
	}

	s.Collapser.InitCollapseCosts(d, s.Calculator)
	s.Output.Prepare(d)

	vertexCount := d.LiveVertexCount()
	lastBakeVertexCount := -1
	lodIndex := 0
	for i := range cfg.Levels {
		lvl := &cfg.Levels[i]
		if lvl.IsManual() {
			s.Output.BakeManualLodLevel(d, lvl.ManualMeshName, lodIndex)
			lodIndex++
			continue
		}

		vertexLimit, costLimit := lvl.thresholds(vertexCount)
		s.Collapser.Collapse(d, s.Calculator, s.Output, vertexLimit, costLimit)

		lvl.OutUniqueVertexCount = d.LiveVertexCount()
		lvl.OutSkipped = lvl.OutUniqueVertexCount == lastBakeVertexCount
		s.log.Info("lod level reduced",
			zap.Int("level", i),
			zap.Stringer("method", lvl.ReductionMethod),
			zap.Float32("value", lvl.ReductionValue),
			zap.Int("vertices", lvl.OutUniqueVertexCount),
			zap.Int("triangles", d.LiveTriangleCount()),
			zap.Bool("skipped", lvl.OutSkipped))
		if lvl.OutSkipped {
			continue
		}

		lastBakeVertexCount = lvl.OutUniqueVertexCount
		s.Output.BakeLodLevel(d, lodIndex)
		lodIndex++
	}

	s.Output.Finalize(d)
	s.Collapser.Finish()
	return nil
}

// Inject attaches the baked levels to the mesh, rebuilds its LOD table and, if the
// mesh had edge lists, its edge lists. Call it on the goroutine that owns the mesh.
func (s *Session) Inject() error {
	if s.injected {
		return ErrAlreadyInjected
	}
	m := s.Config.Mesh
	hadEdgeLists := m.HasEdgeLists()

	m.ClearLods()
	if err := s.Output.Inject(m); err != nil {
		return fmt.Errorf("injecting lods into %s: %w", m.Name, err)
	}

	strategy := s.Config.Strategy
	m.LodStrategy = strategy
	m.LodUsages = []mesh.LodUsage{{Value: strategy.BaseValue()}}
	for i := range s.Config.Levels {
		lvl := &s.Config.Levels[i]
		if lvl.OutSkipped {
			continue
		}
		m.LodUsages = append(m.LodUsages, mesh.LodUsage{
			UserValue:  lvl.Distance,
			Value:      strategy.TransformUserValue(lvl.Distance),
			ManualName: lvl.ManualMeshName,
		})
	}

	if hadEdgeLists {
		m.BuildEdgeLists()
	}
	s.injected = true
	return nil
}

// Profile returns the costs recorded when the config asked for RecordProfile, or nil.
func (s *Session) Profile() []ProfiledEdge {
	if p, ok := s.Calculator.(*ProfiledCost); ok && p.Recording() {
		return p.Profile()
	}
	return nil
}

// generateManual handles configs whose levels are all substitute meshes.
func (g *Generator) generateManual(cfg *Config) (*Session, error) {
	s := g.NewSession(cfg, nil)
	s.runManual(len(cfg.Mesh.SubMeshes))
	if err := s.Inject(); err != nil {
		return nil, err
	}
	return s, nil
}

// runManual bakes a config made only of manual levels without reading any
// geometry. The levels are not injected.
func (s *Session) runManual(submeshes int) {
	d := s.Data
	d.IndexBufferInfo = make([]IndexBufferInfo, submeshes)

	s.Output.Prepare(d)
	for i := range s.Config.Levels {
		s.Output.BakeManualLodLevel(d, s.Config.Levels[i].ManualMeshName, i)
	}
	s.Output.Finalize(d)
	s.Collapser.Finish()
}

// AutoConfig returns a four level config for m based on its bounding radius:
// pixel-count thresholds falling with the 4th power of the level and collapse
// cost limits rising with the 5th.
func AutoConfig(m *mesh.Mesh) *Config {
	cfg := NewConfig(m)
	cfg.Strategy = mesh.PixelCountStrategy{}
	for i := 2; i < 6; i++ {
		i4 := float32(i * i * i * i)
		i5 := i4 * float32(i)
		cfg.AddGeneratedLevel(3388608/i4, ReductionCollapseCost, m.BoundingRadius/100000*i5)
	}
	return cfg
}
