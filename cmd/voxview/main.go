package main

import (
	"flag"
	"log"
	"os"
	"sync/atomic"

	"github.com/faiface/mainthread"
	"github.com/xlab/closer"

	"voxview/internal/config"
)

var (
	configPath = flag.String("config", "assets/config.yaml", "path to the YAML configuration")
	seed       = flag.Int64("seed", 0, "world seed (overrides the config when non-zero)")
	radius     = flag.Int("radius", -1, "chunk streaming radius (overrides the config when >= 0)")
	noSky      = flag.Bool("nosky", false, "disable the skybox")
	verbose    = flag.Bool("v", false, "log per-chunk generation times")
)

// quit is set by the signal handler; the loop checks it every frame.
var (
	quit     atomic.Bool
	loopDone = make(chan struct{})
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[voxview] ")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	closer.Bind(func() {
		quit.Store(true)
		<-loopDone
	})

	mainthread.Run(func() {
		defer close(loopDone)
		if err := run(cfg); err != nil {
			log.Printf("viewer: %v", err)
			os.Exit(1)
		}
	})
	closer.Close()
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	} else {
		log.Printf("no config at %s, using defaults", *configPath)
	}

	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *radius >= 0 {
		cfg.World.StreamRadius = *radius
	}
	if *noSky {
		cfg.Sky.Enabled = false
	}
	return cfg, cfg.Validate()
}
