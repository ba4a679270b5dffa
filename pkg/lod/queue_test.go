package lod

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueue_GeneratesWithoutTouchingMesh(t *testing.T) {
	gen := NewGenerator()
	defer gen.Close()

	m := gridMesh(t, 6)
	cfg := NewConfig(m)
	cfg.AddGeneratedLevel(10, ReductionProportional, 0.5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	job := gen.GenerateAsync(ctx, cfg)
	s, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if m.NumLodLevels() != 1 {
		t.Error("expected the mesh to be untouched before Inject")
	}
	if cfg.Levels[0].OutUniqueVertexCount >= 49 {
		t.Errorf("expected reduction, got %d vertices", cfg.Levels[0].OutUniqueVertexCount)
	}

	if err := job.Inject(); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if m.NumLodLevels() != 2 {
		t.Errorf("expected 2 lod levels after Inject, got %d", m.NumLodLevels())
	}
	if err := s.Inject(); !errors.Is(err, ErrAlreadyInjected) {
		t.Errorf("expected ErrAlreadyInjected, got %v", err)
	}
}

func TestQueue_MatchesSynchronous(t *testing.T) {
	direct := gridMesh(t, 5)
	cfg := NewConfig(direct)
	cfg.AddGeneratedLevel(10, ReductionProportional, 0.4)
	if _, err := NewGenerator().Generate(cfg); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	q := NewQueue(NewGenerator(), 1)
	defer q.Close()

	async := gridMesh(t, 5)
	acfg := NewConfig(async)
	acfg.AddGeneratedLevel(10, ReductionProportional, 0.4)
	job := q.Submit(context.Background(), acfg)
	<-job.Done()
	if err := job.Inject(); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	want := triangles(direct.SubMeshes[0].LodFaceList[0])
	got := triangles(async.SubMeshes[0].LodFaceList[0])
	if len(want) != len(got) {
		t.Fatalf("async baked %d triangles, direct %d", len(got), len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("triangle %d differs: %v != %v", i, got[i], want[i])
		}
	}
}

func TestQueue_Errors(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		q := NewQueue(NewGenerator(), 4)
		defer q.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := NewConfig(gridMesh(t, 2))
		cfg.AddGeneratedLevel(10, ReductionProportional, 0.5)

		_, err := q.Submit(ctx, cfg).Wait(context.Background())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("closed", func(t *testing.T) {
		q := NewQueue(NewGenerator(), 4)
		q.Close()

		cfg := NewConfig(gridMesh(t, 2))
		_, err := q.Submit(context.Background(), cfg).Wait(context.Background())
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		q := NewQueue(NewGenerator(), 4)
		defer q.Close()

		cfg := NewConfig(nil)
		_, err := q.Submit(context.Background(), cfg).Wait(context.Background())
		if !errors.Is(err, ErrNilMesh) {
			t.Errorf("expected ErrNilMesh, got %v", err)
		}
	})

	t.Run("generator closed before first use", func(t *testing.T) {
		gen := NewGenerator()
		gen.Close()

		cfg := AutoConfig(icosahedron(t))
		job := gen.GenerateAsync(context.Background(), cfg)
		if _, err := job.Wait(context.Background()); !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}
		if err := job.Inject(); !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed from Inject, got %v", err)
		}
	})

	t.Run("generator closed after use", func(t *testing.T) {
		gen := NewGenerator()
		cfg := NewConfig(gridMesh(t, 2))
		cfg.AddGeneratedLevel(10, ReductionProportional, 0.5)
		if _, err := gen.GenerateAsync(context.Background(), cfg).Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		gen.Close()

		_, err := gen.GenerateAsync(context.Background(), cfg).Wait(context.Background())
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}
	})

	t.Run("pending", func(t *testing.T) {
		j := newJob(context.Background(), NewConfig(gridMesh(t, 1)))
		if err := j.Inject(); !errors.Is(err, ErrJobPending) {
			t.Errorf("expected ErrJobPending, got %v", err)
		}
	})
}

func TestQueue_ManualOnly(t *testing.T) {
	gen := NewGenerator()
	defer gen.Close()

	m := icosahedron(t)
	cfg := NewConfig(m)
	cfg.AddManualLevel(10, "ico_low")
	cfg.AddManualLevel(20, "ico_lowest")

	job := gen.GenerateAsync(context.Background(), cfg)
	s, err := job.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if s.Collapser.State() != CollapserDone {
		t.Errorf("expected collapser done, got %s", s.Collapser.State())
	}
	if s.Data.VertexCount() != 0 || s.Data.LiveVertexCount() != 0 {
		t.Errorf("expected no topology for manual levels, got %d vertices, heap %d",
			s.Data.VertexCount(), s.Data.LiveVertexCount())
	}
	if m.NumLodLevels() != 1 {
		t.Error("expected the mesh to be untouched before Inject")
	}

	if err := job.Inject(); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if m.NumLodLevels() != 3 {
		t.Fatalf("expected 3 lod levels, got %d", m.NumLodLevels())
	}
	if m.LodUsages[1].ManualName != "ico_low" || m.LodUsages[2].ManualName != "ico_lowest" {
		t.Errorf("unexpected manual names %q %q", m.LodUsages[1].ManualName, m.LodUsages[2].ManualName)
	}
	for _, data := range m.SubMeshes[0].LodFaceList {
		if data.Count != 0 || data.Buffer != nil {
			t.Errorf("expected empty placeholder, got %+v", data)
		}
	}
}
