// Command cveureka loads a CryoVEx airborne campaign into a SQLite
// database: the ASIRAS radar altimeter L1b file and the ALS laser
// scanner file are decoded into source tables, then the radar
// waveforms are retracked into derived elevation and shape tables.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pjdon/cveureka/internal/config"
	"github.com/pjdon/cveureka/internal/logging"
	"github.com/pjdon/cveureka/internal/pipeline"
	"github.com/pjdon/cveureka/internal/store"
	"github.com/pjdon/cveureka/internal/version"
)

var (
	configPath  = flag.String("config", "cveureka.yaml", "Path to YAML configuration file")
	asirasPath  = flag.String("asiras", "", "ASIRAS L1b file (overrides config)")
	alsPath     = flag.String("als", "", "ALS scanner file (overrides config)")
	dbPath      = flag.String("db", "", "SQLite database path (overrides config)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("cveureka %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *asirasPath != "" {
		cfg.AsirasFile = *asirasPath
	}
	if *alsPath != "" {
		cfg.AlsFile = *alsPath
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if cfg.AsirasFile == "" || cfg.AlsFile == "" {
		log.Fatal("ASIRAS and ALS file paths are required (config or flags)")
	}

	if err := logging.Setup(cfg.Logs); err != nil {
		log.Fatalf("setup logging: %v", err)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database %s: %v", cfg.Database, err)
	}
	defer st.Close()

	p := pipeline.New(st, cfg.Params())
	p.BlocksToBuffer = cfg.BlocksToBuffer
	p.LinesToBuffer = cfg.LinesToBuffer

	if err := p.Run(cfg.AsirasFile, cfg.AlsFile); err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}
	log.Print("pipeline complete")
}
