package lod

import (
	"errors"
	"testing"

	"github.com/Faultbox/meshlod/pkg/mesh"
)

func TestLevel_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		vertices int
		limit    int
		cost     float32
	}{
		{"proportional half", Level{ReductionMethod: ReductionProportional, ReductionValue: 0.5}, 100, 50, NeverCollapseCost},
		{"proportional clamped", Level{ReductionMethod: ReductionProportional, ReductionValue: 2}, 100, 0, NeverCollapseCost},
		{"proportional none", Level{ReductionMethod: ReductionProportional}, 100, 100, NeverCollapseCost},
		{"constant", Level{ReductionMethod: ReductionConstant, ReductionValue: 30}, 100, 70, NeverCollapseCost},
		{"constant past zero", Level{ReductionMethod: ReductionConstant, ReductionValue: 300}, 100, 0, NeverCollapseCost},
		{"collapse cost", Level{ReductionMethod: ReductionCollapseCost, ReductionValue: 0.25}, 100, 0, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, cost := tt.level.thresholds(tt.vertices)
			if limit != tt.limit {
				t.Errorf("vertex limit = %d, want %d", limit, tt.limit)
			}
			if cost != tt.cost {
				t.Errorf("cost limit = %v, want %v", cost, tt.cost)
			}
		})
	}
}

func TestParseReductionMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    ReductionMethod
		wantErr bool
	}{
		{"proportional", ReductionProportional, false},
		{"constant", ReductionConstant, false},
		{"collapse_cost", ReductionCollapseCost, false},
		{"cost", ReductionCollapseCost, false},
		{"linear", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReductionMethod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if !tt.wantErr && tt.in != "cost" && got.String() != tt.in {
				t.Errorf("String() = %s, want %s", got.String(), tt.in)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Config)
		want  error
	}{
		{"valid", func(c *Config) {
			c.AddGeneratedLevel(10, ReductionProportional, 0.5)
			c.AddManualLevel(20, "low")
		}, nil},
		{"no mesh", func(c *Config) { c.Mesh = nil }, ErrNilMesh},
		{"no strategy", func(c *Config) { c.Strategy = nil }, ErrNoStrategy},
		{"decreasing distance", func(c *Config) {
			c.AddGeneratedLevel(20, ReductionProportional, 0.5)
			c.AddGeneratedLevel(10, ReductionProportional, 0.5)
		}, ErrLevelOrder},
		{"equal distance", func(c *Config) {
			c.AddGeneratedLevel(10, ReductionProportional, 0.3)
			c.AddGeneratedLevel(10, ReductionProportional, 0.5)
		}, nil},
		{"proportional above one", func(c *Config) {
			c.AddGeneratedLevel(10, ReductionProportional, 1.5)
		}, ErrInvalidReduction},
		{"negative constant", func(c *Config) {
			c.AddGeneratedLevel(10, ReductionConstant, -1)
		}, ErrInvalidReduction},
		{"pixel count decreasing", func(c *Config) {
			c.Strategy = mesh.PixelCountStrategy{}
			c.AddGeneratedLevel(1000, ReductionProportional, 0.3)
			c.AddGeneratedLevel(100, ReductionProportional, 0.6)
		}, nil},
		{"bad mesh", func(c *Config) {
			c.Mesh = &mesh.Mesh{SubMeshes: []*mesh.SubMesh{{}}}
		}, mesh.ErrMissingVertexData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(gridMesh(t, 1))
			tt.setup(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConfig_ManualOnly(t *testing.T) {
	cfg := NewConfig(gridMesh(t, 1))
	if cfg.ManualOnly() {
		t.Error("expected config without levels not to be manual only")
	}
	cfg.AddManualLevel(10, "a")
	if !cfg.ManualOnly() {
		t.Error("expected manual only")
	}
	cfg.AddGeneratedLevel(20, ReductionProportional, 0.5)
	if cfg.ManualOnly() {
		t.Error("expected mixed config not to be manual only")
	}
}
