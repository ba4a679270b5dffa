// lodtool is a CLI utility for generating mesh levels of detail.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlod/internal/config"
	"github.com/Faultbox/meshlod/internal/logger"
	"github.com/Faultbox/meshlod/pkg/formats"
	"github.com/Faultbox/meshlod/pkg/lod"
	"github.com/Faultbox/meshlod/pkg/mesh"
)

func main() {
	config.ParseFlags()
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		cmdInfo(args)
	case "generate", "gen":
		cmdGenerate(args)
	case "profile":
		cmdProfile(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lodtool - mesh level of detail generator

Usage:
  lodtool [flags] <command> [arguments]

Commands:
  info <mesh>                        Show mesh and LOD information
  generate <mesh> <out.lmsh>         Generate LOD levels and write an LMSH file
  profile <mesh> <out.yaml>          Record collapse costs to a profile file

Meshes are read from .obj or .lmsh files.

Flags:
  -config <path>   Config file (default: <mesh>.lod.yaml or lodtool.yaml next to
                   the mesh, ./lodtool.yaml, then the user config dir)
  -debug           Enable debug logging
  -compress        Share index buffers between pairs of levels
  -no-compress     Bake one index buffer per level
  -normals         Use vertex normals in collapse costs
  -async           Generate on the background queue
  -auto            Pick levels from the mesh bounding radius
  -profile <path>  Replay collapse costs from a profile file

Examples:
  lodtool info rock.obj
  lodtool -auto generate rock.obj rock.lmsh
  lodtool profile rock.obj rock_costs.yaml
  lodtool -profile rock_costs.yaml generate rock.obj rock.lmsh`)
}

func fatal(err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// setup loads the config for meshPath and initialises logging.
func setup(meshPath string) *config.Config {
	cfg, err := config.Load(meshPath)
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fatal(err)
	}
	return cfg
}

func newGenerator() *lod.Generator {
	return lod.NewGenerator(lod.WithLogger(logger.Named("lod")))
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool info <mesh>")
		os.Exit(1)
	}

	m, err := formats.LoadMesh(args[0])
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Mesh:      %s\n", m.Name)
	fmt.Printf("Radius:    %.4f\n", m.BoundingRadius)
	if m.SharedVertexData != nil {
		fmt.Printf("Vertices:  %d shared (normals: %v)\n",
			m.SharedVertexData.VertexCount(), m.SharedVertexData.Buffer.HasNormals())
	}
	fmt.Printf("Submeshes: %d\n", len(m.SubMeshes))
	fmt.Printf("LODs:      %d\n", m.NumLodLevels())
	fmt.Println()

	for i, sm := range m.SubMeshes {
		material := sm.MaterialName
		if material == "" {
			material = "(none)"
		}
		fmt.Printf("  [%d] %-16s %-14s %6d vertices %6d triangles\n", i, material, sm.Operation,
			m.Vertices(sm).VertexCount(), sm.Operation.TriangleCount(sm.IndexData.Count))
		for l, data := range sm.LodFaceList {
			if data.Buffer == nil {
				fmt.Printf("      lod %d: manual\n", l+1)
				continue
			}
			fmt.Printf("      lod %d: %d triangles\n", l+1, mesh.TriangleList.TriangleCount(data.Count))
		}
	}

	if m.LodStrategy != nil && len(m.LodUsages) > 0 {
		fmt.Println()
		fmt.Printf("Strategy: %s\n", m.LodStrategy.Name())
		for i, u := range m.LodUsages {
			line := fmt.Sprintf("  %d: %g", i, u.UserValue)
			if u.ManualName != "" {
				line += " -> " + u.ManualName
			}
			fmt.Println(line)
		}
	}
}

func cmdGenerate(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool generate <mesh> <out.lmsh>")
		os.Exit(1)
	}
	cfg := setup(args[0])
	defer logger.Sync()

	m, err := formats.LoadMesh(args[0])
	if err != nil {
		fatal(err)
	}
	lodCfg, err := cfg.Lod.ToLodConfig(m)
	if err != nil {
		fatal(err)
	}

	gen := newGenerator()
	defer gen.Close()

	var session *lod.Session
	if cfg.Lod.Async {
		session, err = generateAsync(gen, lodCfg)
	} else {
		session, err = gen.Generate(lodCfg)
	}
	if err != nil {
		fatal(err)
	}

	printReport(m, session)

	if err := formats.WriteLMSHFile(args[1], m); err != nil {
		fatal(err)
	}
	logger.Info("lods written", zap.String("path", args[1]), zap.Int("levels", m.NumLodLevels()))
	fmt.Printf("Wrote: %s\n", args[1])
}

// generateAsync runs lodCfg on the generator queue and injects the result here.
func generateAsync(gen *lod.Generator, lodCfg *lod.Config) (*lod.Session, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	job := gen.GenerateAsync(ctx, lodCfg)
	session, err := job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := job.Inject(); err != nil {
		return nil, err
	}
	return session, nil
}

func printReport(m *mesh.Mesh, s *lod.Session) {
	fmt.Printf("Mesh: %s (%s strategy)\n", m.Name, s.Config.Strategy.Name())
	for i := range s.Config.Levels {
		lvl := &s.Config.Levels[i]
		switch {
		case lvl.IsManual():
			fmt.Printf("  %10g  manual %s\n", lvl.Distance, lvl.ManualMeshName)
		case lvl.OutSkipped:
			fmt.Printf("  %10g  %-13s %-8g skipped (%d vertices)\n",
				lvl.Distance, lvl.ReductionMethod, lvl.ReductionValue, lvl.OutUniqueVertexCount)
		default:
			fmt.Printf("  %10g  %-13s %-8g %d vertices\n",
				lvl.Distance, lvl.ReductionMethod, lvl.ReductionValue, lvl.OutUniqueVertexCount)
		}
	}
}

func cmdProfile(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool profile <mesh> <out.yaml>")
		os.Exit(1)
	}
	cfg := setup(args[0])
	defer logger.Sync()

	m, err := formats.LoadMesh(args[0])
	if err != nil {
		fatal(err)
	}
	lodCfg, err := cfg.Lod.ToLodConfig(m)
	if err != nil {
		fatal(err)
	}
	lodCfg.Advanced.Profile = nil
	lodCfg.Advanced.RecordProfile = true

	session, err := newGenerator().Generate(lodCfg)
	if err != nil {
		fatal(err)
	}

	profile := session.Profile()
	if err := lod.SaveProfile(args[1], m.Name, profile); err != nil {
		fatal(err)
	}
	fmt.Printf("Recorded %d edges: %s\n", len(profile), args[1])
}
