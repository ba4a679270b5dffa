package lod

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Faultbox/meshlod/pkg/math"
	"github.com/Faultbox/meshlod/pkg/mesh"
)

func profileConfig(m *mesh.Mesh) *Config {
	cfg := NewConfig(m)
	cfg.AddGeneratedLevel(10, ReductionProportional, 0.3)
	cfg.AddGeneratedLevel(20, ReductionProportional, 0.6)
	cfg.AddGeneratedLevel(30, ReductionCollapseCost, 0.5)
	return cfg
}

func bakedBytes(m *mesh.Mesh) [][]byte {
	var out [][]byte
	for _, sm := range m.SubMeshes {
		for _, data := range sm.LodFaceList {
			b := data.Buffer.Bytes()
			size := data.Buffer.Type().Size()
			out = append(out, b[data.Start*size:(data.Start+data.Count)*size])
		}
	}
	return out
}

func TestProfile_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		m    func(t *testing.T) *mesh.Mesh
	}{
		{"icosahedron", icosahedron},
		{"grid", func(t *testing.T) *mesh.Mesh { return gridMesh(t, 6) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator()

			recorded := tt.m(t)
			cfg := profileConfig(recorded)
			cfg.Advanced.RecordProfile = true
			s, err := gen.Generate(cfg)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			profile := s.Profile()
			if len(profile) == 0 {
				t.Fatal("expected a recorded profile")
			}

			path := filepath.Join(t.TempDir(), "profile.yaml")
			if err := SaveProfile(path, recorded.Name, profile); err != nil {
				t.Fatalf("SaveProfile: %v", err)
			}
			loaded, err := LoadProfile(path)
			if err != nil {
				t.Fatalf("LoadProfile: %v", err)
			}
			if !reflect.DeepEqual(loaded, profile) {
				t.Fatal("loaded profile differs from the saved one")
			}

			replayed := tt.m(t)
			cfg2 := profileConfig(replayed)
			cfg2.Advanced.Profile = loaded
			if _, err := gen.Generate(cfg2); err != nil {
				t.Fatalf("Generate with profile: %v", err)
			}

			want, got := bakedBytes(recorded), bakedBytes(replayed)
			if len(want) != len(got) {
				t.Fatalf("recorded %d levels, replay baked %d", len(want), len(got))
			}
			for i := range want {
				if !bytes.Equal(want[i], got[i]) {
					t.Errorf("level %d differs after replay", i)
				}
			}
		})
	}
}

func TestProfile_OverrideForbidsCollapse(t *testing.T) {
	m := gridMesh(t, 2)
	d := populate(t, m)

	src := math.Vec3{X: 1, Y: 1}
	dst := math.Vec3{X: 1, Y: 0}
	calc := NewProfileReplay(&CurvatureCost{}, []ProfiledEdge{
		{Src: src, Dst: dst, Costs: []float32{NeverCollapseCost}},
	}, nil)
	calc.Init(d)

	s, dv := vertexAt(t, d, 1, 1, 0), vertexAt(t, d, 1, 0, 0)
	for i := 0; i < 3; i++ {
		if got := edgeCost(t, d, calc, s, dv); got != NeverCollapseCost {
			t.Errorf("call %d: expected override to repeat, got %v", i, got)
		}
	}

	// other edges fall through to the wrapped calculator
	other := vertexAt(t, d, 0, 1, 0)
	if got, want := edgeCost(t, d, calc, s, other), edgeCost(t, d, &CurvatureCost{}, s, other); got != want {
		t.Errorf("unprofiled edge cost = %v, want %v", got, want)
	}
}

func TestProfile_DropsInvalidEntries(t *testing.T) {
	d := populate(t, gridMesh(t, 2))
	profile := []ProfiledEdge{
		// no such vertex
		{Src: math.Vec3{X: 9, Y: 9}, Dst: math.Vec3{X: 1}, Costs: []float32{0}},
		// not an edge
		{Src: math.Vec3{}, Dst: math.Vec3{X: 2, Y: 2}, Costs: []float32{0}},
		{Src: math.Vec3{X: 1, Y: 1}, Dst: math.Vec3{X: 1}, Costs: nil},
		{Src: math.Vec3{X: 1, Y: 1}, Dst: math.Vec3{X: 1}, Costs: []float32{-1}},
		{Src: math.Vec3{X: 1, Y: 1}, Dst: math.Vec3{Y: 1}, Costs: []float32{0}},
	}
	calc := NewProfileReplay(&CurvatureCost{}, profile, nil)
	calc.Init(d)

	if len(calc.index) != 1 {
		t.Errorf("expected 1 usable entry, got %d", len(calc.index))
	}
	s := vertexAt(t, d, 1, 1, 0)
	if got := edgeCost(t, d, calc, s, vertexAt(t, d, 0, 1, 0)); got != 0 {
		t.Errorf("expected replayed cost 0, got %v", got)
	}
}

func TestSaveProfile_NeverCost(t *testing.T) {
	profile := []ProfiledEdge{{
		Src:   math.Vec3{X: 0.1, Y: 0.2, Z: 0.3},
		Dst:   math.Vec3{X: -1.5},
		Costs: []float32{0.001, NeverCollapseCost, 3.2},
	}}
	path := filepath.Join(t.TempDir(), "never.yaml")
	if err := SaveProfile(path, "never", profile); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if !reflect.DeepEqual(loaded, profile) {
		t.Errorf("round trip = %+v, want %+v", loaded, profile)
	}
}

func TestLoadProfile_Missing(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing profile")
	}
}
