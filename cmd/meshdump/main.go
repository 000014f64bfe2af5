// Command meshdump generates a single chunk without a window and writes its
// mesh as Wavefront OBJ, optionally zstd-compressed.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"voxview/internal/atlas"
	"voxview/internal/config"
	"voxview/internal/export"
	"voxview/internal/meshing"
	"voxview/internal/profiling"
	"voxview/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "assets/config.yaml", "path to the YAML configuration")
		seed       = flag.Int64("seed", 0, "world seed (overrides the config when non-zero)")
		chunk      = flag.String("chunk", "0,0,0", "chunk coordinate x,y,z")
		out        = flag.String("out", "chunk.obj", "output path; a .zst suffix compresses")
		atlasOut   = flag.String("atlas", "", "also write the atlas PNG and a material library next to it")
		cull       = flag.Bool("cull", false, "hide faces against neighbouring chunks")
	)
	flag.Parse()
	logger := log.New(os.Stdout, "[meshdump] ", log.LstdFlags)

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatalf("config: %v", err)
		}
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	coord, err := parseCoord(*chunk)
	if err != nil {
		logger.Fatalf("chunk: %v", err)
	}

	b := atlas.NewBuilder(cfg.Atlas.Size, cfg.Atlas.TileSize)
	for _, t := range cfg.Atlas.Textures {
		b.Add(atlas.TextureID(t.ID), t.Path)
	}
	a, err := b.Build()
	if err != nil {
		logger.Fatalf("atlas: %v", err)
	}
	table := meshing.DefaultTextureTable()
	if cfg.Atlas.Fallback != "" {
		table.SetFallback(atlas.TextureID(cfg.Atlas.Fallback))
	}

	gen := cfg.NewGenerator()
	timer := profiling.Start("meshdump.generate")
	grid := gen.Populate(coord)
	var opts []meshing.Option
	if *cull {
		opts = append(opts, meshing.WithNeighbors(gen.Neighbors(coord)))
	}
	vertices, err := meshing.Generate(grid, table.Lookup(a), opts...)
	if err != nil {
		logger.Fatalf("mesh: %v", err)
	}
	logger.Printf("chunk %d,%d,%d: %d solid voxels, %d faces in %s",
		coord.X, coord.Y, coord.Z, grid.Count(), meshing.FaceCount(vertices), profiling.FormatMs(timer.Stop()))

	obj := export.OBJ{
		Name:     fmt.Sprintf("chunk_%d_%d_%d", coord.X, coord.Y, coord.Z),
		Vertices: vertices,
		Offset:   coord.Translation(gen.Dims()),
	}
	if *atlasOut != "" {
		mtl := strings.TrimSuffix(*atlasOut, filepath.Ext(*atlasOut)) + ".mtl"
		if err := writeAtlas(*atlasOut, mtl, a); err != nil {
			logger.Fatalf("atlas: %v", err)
		}
		obj.MaterialLib = filepath.Base(mtl)
		obj.Material = "atlas"
	}
	if err := export.WriteFile(*out, obj); err != nil {
		logger.Fatalf("export: %v", err)
	}
	logger.Printf("wrote %s", *out)
}

func parseCoord(s string) (world.ChunkCoord, error) {
	var c world.ChunkCoord
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &c.X, &c.Y, &c.Z); err != nil {
		return c, fmt.Errorf("%q is not x,y,z: %w", s, err)
	}
	return c, nil
}

func writeAtlas(pngPath, mtlPath string, a *atlas.Atlas) error {
	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, a.Image()); err != nil {
		return err
	}

	m, err := os.Create(mtlPath)
	if err != nil {
		return err
	}
	defer m.Close()
	return export.WriteMTL(m, "atlas", filepath.Base(pngPath))
}
