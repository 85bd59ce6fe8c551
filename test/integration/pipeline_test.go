package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"especulai/internal/artifacts"
	"especulai/internal/config"
	"especulai/internal/inference"
	"especulai/internal/logger"
	"especulai/internal/models"
	"especulai/internal/pipeline"
	"especulai/internal/report"
)

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		Input: config.InputConfig{
			Kind:    "csv",
			CSVPath: filepath.Join("..", "fixtures", "anuncios.csv"),
		},
		Enrichment: config.EnrichmentConfig{
			IndexPath: filepath.Join("..", "fixtures", "indice_economico.csv"),
			GeoBuckets: map[string]string{
				"Centro": "centro",
				"Fátima": "zona leste",
				"Jóquei": "zona leste",
				"Horto":  "zona leste",
				"Ininga": "zona leste",
			},
		},
		Quality: config.QualityConfig{IQRMultiplier: 1.5},
		Training: config.TrainingConfig{
			PreferredSource: "OLX",
			MinSegmentRows:  15,
			HoldoutRatio:    0.2,
			Seed:            42,
		},
		Confidence: config.ConfidenceConfig{High: 0.15, Medium: 0.35},
		Output: config.OutputConfig{
			DataDir:     filepath.Join(dir, "processado"),
			ArtifactDir: filepath.Join(dir, "modelos"),
			MetricsLog:  filepath.Join(dir, "metricas.tab"),
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

// Full flow over the fixture listings: ingest, normalize, enrich,
// filter, segment, train, export, then serve a prediction from the
// published pair.
func TestPipelineToPrediction(t *testing.T) {
	cfg := fixtureConfig(t)
	log := logger.New("error")

	summary, err := pipeline.New(cfg, log).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.PrimarySegment != "fonte_olx__negocio_venda" {
		t.Errorf("PrimarySegment = %q", summary.PrimarySegment)
	}

	if summary.ArtifactVersion == "" {
		t.Fatal("no artifact version published")
	}

	// Rows with a missing price or a zero area must have been
	// rejected, the wild kitnet outlier dropped.
	if summary.Normalized >= summary.Fetched {
		t.Errorf("Normalized = %d of %d, expected rejections", summary.Normalized, summary.Fetched)
	}

	if summary.Kept >= summary.Normalized {
		t.Errorf("Kept = %d of %d, expected the outlier dropped", summary.Kept, summary.Normalized)
	}

	adapter := inference.NewAdapter(artifacts.NewStore(cfg.Output.ArtifactDir))
	if err := adapter.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	resp, err := adapter.Predict(models.PredictionRequest{
		Area:      85.0,
		Rooms:     3,
		Bathrooms: 2,
		Type:      "apartamento",
		Bairro:    "Jóquei",
		Cidade:    "Teresina",
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if resp.EstimatedPrice <= 0 {
		t.Errorf("EstimatedPrice = %v, want a positive price", resp.EstimatedPrice)
	}

	// 85 m² in this market trains around 360-420k; anything an order
	// of magnitude off means the feature plumbing broke.
	if resp.EstimatedPrice < 100000 || resp.EstimatedPrice > 1500000 {
		t.Errorf("EstimatedPrice = %v, outside any plausible band", resp.EstimatedPrice)
	}

	// A neighborhood the model never saw still gets an estimate.
	unseen, err := adapter.Predict(models.PredictionRequest{
		Area:      85.0,
		Rooms:     3,
		Bathrooms: 2,
		Type:      "apartamento",
		Bairro:    "Jardins",
		Cidade:    "São Paulo",
	})
	if err != nil {
		t.Fatalf("Predict unseen: %v", err)
	}

	if unseen.EstimatedPrice <= 0 {
		t.Errorf("unseen EstimatedPrice = %v", unseen.EstimatedPrice)
	}

	// Bad requests are rejected as such, not served defaults.
	if _, err := adapter.Predict(models.PredictionRequest{
		Area: -1, Rooms: 3, Bathrooms: 2,
		Type: "apartamento", Bairro: "Jóquei", Cidade: "Teresina",
	}); !inference.IsValidationError(err) {
		t.Errorf("negative area err = %v, want a validation error", err)
	}

	// Metrics history renders for operators.
	records, err := report.NewLog(cfg.Output.MetricsLog).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if len(records) == 0 {
		t.Fatal("no metrics recorded")
	}

	table := report.RenderTable(records)
	if !strings.Contains(table, "fonte_olx__negocio_venda") {
		t.Error("rendered table must include the primary segment")
	}
}

// A rerun publishes a fresh artifact version and the previous one
// remains loadable.
func TestRerunKeepsHistory(t *testing.T) {
	cfg := fixtureConfig(t)
	log := logger.New("error")
	p := pipeline.New(cfg, log)

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	store := artifacts.NewStore(cfg.Output.ArtifactDir)

	current, err := store.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}

	if current != second.ArtifactVersion {
		t.Errorf("current = %q, want the second run's %q", current, second.ArtifactVersion)
	}

	if _, err := store.Load(first.ArtifactVersion); err != nil {
		t.Errorf("first run's artifact no longer loads: %v", err)
	}
}
