// Package main runs the batch estimation pipeline end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"especulai/internal/config"
	"especulai/internal/logger"
	"especulai/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "configs/pipeline.yaml", "Path to YAML configuration file")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log := logger.New(cfg.Logging.Level)

	summary, err := pipeline.New(cfg, log).Run(context.Background())
	if err != nil {
		log.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	log.Info("pipeline run finished",
		"run_id", summary.RunID,
		"fetched", summary.Fetched,
		"kept", summary.Kept,
		"segments", len(summary.Segments),
		"trained", len(summary.Trained),
		"primary", summary.PrimarySegment,
		"artifact_version", summary.ArtifactVersion)

	fmt.Printf("✅ Run %s finished: %d listings in, %d kept, artifact %s\n",
		summary.RunID, summary.Fetched, summary.Kept, summary.ArtifactVersion)
}
