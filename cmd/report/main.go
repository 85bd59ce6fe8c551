// Package main prints the training metrics history as an aligned
// table.
package main

import (
	"flag"
	"fmt"
	"os"

	"especulai/internal/config"
	"especulai/internal/models"
	"especulai/internal/report"
)

func main() {
	configFile := flag.String("config", "configs/pipeline.yaml", "Path to YAML configuration file")
	logPath := flag.String("log", "", "Metrics log path (overrides config)")
	segment := flag.String("segment", "", "Only show rows for this segment")
	flag.Parse()

	path := *logPath
	if path == "" {
		cfg, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
			os.Exit(1)
		}

		path = cfg.Output.MetricsLog
	}

	records, err := report.NewLog(path).ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to read metrics log: %v\n", err)
		os.Exit(1)
	}

	if *segment != "" {
		records = filterSegment(records, *segment)
	}

	if len(records) == 0 {
		fmt.Println("No training metrics recorded yet.")

		return
	}

	fmt.Print(report.RenderTable(records))
}

func filterSegment(records []models.MetricsRecord, segment string) []models.MetricsRecord {
	var out []models.MetricsRecord

	for _, rec := range records {
		if rec.Segment == segment {
			out = append(out, rec)
		}
	}

	return out
}
