package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"crewopt/cmd/mockgen/engine"
	"crewopt/internal/dataset"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Duration distribution: uniform, weibull")
	outDir := flag.String("out", "./data", "Output dataset directory")
	workers := flag.Int("workers", 25, "Number of workers")
	tasks := flag.Int("tasks", 6, "Number of task types")
	projects := flag.Int("projects", 30, "Historical projects per task")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Workers:      *workers,
		Tasks:        *tasks,
		Projects:     *projects,
		Seed:         *seed,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, %d workers, %d tasks, %d projects) to %s...\n",
		cfg.Scenario, cfg.Distribution, cfg.Workers, cfg.Tasks, cfg.Projects, *outDir)

	ds := engine.Generate(cfg)
	if err := ds.Validate(); err != nil {
		fmt.Printf("Generated dataset is invalid: %v\n", err)
		os.Exit(1)
	}

	if err := (dataset.Dir{Path: *outDir}).Save(ds); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
