package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gekko3d/voxmesh"
	"github.com/gekko3d/voxmesh/chunk"
	"github.com/gekko3d/voxmesh/field"
	"github.com/gekko3d/voxmesh/mesh"
	"github.com/gekko3d/voxmesh/voxfile"
)

type options struct {
	algo       string
	size       int
	smooth     bool
	iterations uint
	source     string
	radius     int
	voxPath    string
	step       float64
	chunks     int
	workers    int
	out        string
	reference  bool
	debug      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("voxmesh", flag.ContinueOnError)
	fs.StringVar(&o.algo, "algo", "mc", "Meshing algorithm: blocky, mc or surfnet")
	fs.IntVar(&o.size, "size", 0, "Lattice edge to mesh (0 picks one for the source)")
	fs.BoolVar(&o.smooth, "smooth", true, "Blur the density before marching cubes")
	fs.UintVar(&o.iterations, "iterations", 7, "Surface nets relaxation rounds")
	fs.StringVar(&o.source, "field", "sphere", "Generated source: sphere, terrain or sdf")
	fs.IntVar(&o.radius, "radius", 24, "Sphere radius in voxels")
	fs.StringVar(&o.voxPath, "vox", "", "Mesh the first model of a MagicaVoxel file instead")
	fs.Float64Var(&o.step, "step", 0.1, "Lattice step for the sdf source")
	fs.IntVar(&o.chunks, "chunks", 0, "Mesh an N×1×N chunk grid instead of a single region")
	fs.IntVar(&o.workers, "workers", 0, "Chunk workers (0 uses GOMAXPROCS)")
	fs.StringVar(&o.out, "out", "", "Write the mesh as binary STL")
	fs.BoolVar(&o.reference, "reference", false, "Also log the sdfx marching cubes triangle count for the sdf source")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.iterations > 0xFFFF {
		return o, fmt.Errorf("%w: iterations %d out of range", voxmesh.ErrInvalidConfig, o.iterations)
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	logger := voxmesh.NewDefaultLogger("voxmesh", o.debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// demoSolid is a rounded cube with a bore through it.
func demoSolid() (sdf.SDF3, error) {
	box, err := sdf.Box3D(v3.Vec{X: 4, Y: 4, Z: 4}, 0.4)
	if err != nil {
		return nil, err
	}
	bore, err := sdf.Cylinder3D(6, 1.2, 0)
	if err != nil {
		return nil, err
	}
	return sdf.Difference3D(box, bore), nil
}

// buildField resolves the configured source and the lattice edge that covers it.
func buildField(o options, defaultSize int) (field.Field, int, error) {
	size := o.size

	switch {
	case o.voxPath != "":
		f, err := voxfile.Load(o.voxPath)
		if err != nil {
			return nil, 0, err
		}
		if len(f.Models) == 0 {
			return nil, 0, fmt.Errorf("%s: no models", o.voxPath)
		}
		model := field.NewModel(f.Models[0])
		if size <= 0 {
			sx, sy, sz := model.Size()
			size = max(sx, sy, sz) + 2
		}
		// One empty voxel of border so the surface closes on every side.
		return field.Window{Source: model, Origin: [3]int{-1, -1, -1}}, size, nil

	case o.source == "sphere":
		if size <= 0 {
			size = max(defaultSize, 2*o.radius+4)
		}
		c := size / 2
		return field.Sphere{Center: [3]int{c, c, c}, Radius: o.radius, Tag: 1}, size, nil

	case o.source == "terrain":
		if size <= 0 {
			size = defaultSize
		}
		s := float64(size)
		return field.SineTerrain{Base: s / 2, Amplitude: s / 8, Wavelength: s / 10}, size, nil

	case o.source == "sdf":
		solid, err := demoSolid()
		if err != nil {
			return nil, 0, fmt.Errorf("build sdf solid: %w", err)
		}
		f, extent := field.NewSDF(solid, o.step)
		if size <= 0 {
			size = extent
		}
		return f, size, nil
	}
	return nil, 0, fmt.Errorf("%w: unknown field %q", voxmesh.ErrInvalidConfig, o.source)
}

func run(ctx context.Context, o options, logger voxmesh.Logger) error {
	alg, err := voxmesh.ParseAlgorithm(o.algo)
	if err != nil {
		return err
	}
	cfg := voxmesh.DefaultConfig(alg)
	cfg.Smooth = o.smooth
	cfg.Iterations = uint16(o.iterations)

	f, size, err := buildField(o, cfg.Size)
	if err != nil {
		return err
	}
	cfg.Size = size

	ms, err := cfg.NewMesher()
	if err != nil {
		return err
	}
	logger.Infof("meshing %s with %v", describeSource(o), ms)

	start := time.Now()
	var out *mesh.Mesh
	if o.chunks > 0 {
		out, err = meshChunks(ctx, o, f, cfg, logger)
		if err != nil {
			return err
		}
	} else {
		out = ms.Mesh(f)
	}
	elapsed := time.Since(start)

	minB, maxB := out.Bounds()
	logger.Infof("%d vertices, %d triangles in %s, bounds %v - %v",
		out.VertexCount(), out.TriangleCount(), elapsed, minB, maxB)
	if _, err := out.Indices16(); err != nil {
		logger.Infof("mesh needs 32-bit indices: %v", err)
	}

	if o.reference && o.voxPath == "" && o.source == "sdf" {
		solid, err := demoSolid()
		if err != nil {
			return err
		}
		start := time.Now()
		tris := render.ToTriangles(solid, render.NewMarchingCubesUniform(size))
		logger.Infof("sdfx reference: %d triangles in %s", len(tris), time.Since(start))
	}

	if o.out != "" {
		if err := writeSTL(o.out, out); err != nil {
			return err
		}
		logger.Infof("wrote %s", o.out)
	}
	return nil
}

func describeSource(o options) string {
	if o.voxPath != "" {
		return o.voxPath
	}
	return o.source
}

// meshChunks tiles the source into an N×1×N grid of size-edged chunks and
// merges the results into one mesh in world units.
func meshChunks(ctx context.Context, o options, f field.Field, cfg voxmesh.Config, logger voxmesh.Logger) (*mesh.Mesh, error) {
	ms, err := cfg.NewMesher()
	if err != nil {
		return nil, err
	}
	mgr := chunk.NewManager(f, ms, chunk.Options{
		Size:    cfg.Size,
		Workers: o.workers,
		Logger:  logger,
	})
	for x := 0; x < o.chunks; x++ {
		for z := 0; z < o.chunks; z++ {
			mgr.Generate(x, 0, z)
		}
	}

	n, err := mgr.Update(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debugf("rebuilt %d chunks", n)

	out := mesh.New()
	for _, c := range mgr.Chunks() {
		out.Append(c.Mesh)
	}
	return out, nil
}
