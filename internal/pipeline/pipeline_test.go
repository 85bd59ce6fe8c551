package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"especulai/internal/artifacts"
	"especulai/internal/config"
	"especulai/internal/logger"
	"especulai/internal/trainer"
)

func writeListingsCSV(t *testing.T, dir string, rows int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("fonte,tipo_negocio,valor_anuncio,area_m2,quartos,banheiros,tipo_imovel,bairro,cidade,localizacao,url_anuncio,data_coleta\n")

	for i := 0; i < rows; i++ {
		area := 50 + i*3
		price := 4000*area + 12000*(1+i%4)
		fmt.Fprintf(&b, "OLX,venda,%d,%d,%d,%d,apartamento,Centro,Teresina,,https://olx.com.br/anuncio/%d,2025-03-0%dT00:00:00Z\n",
			price, area, 1+i%4, 1+i%3, i, 1+i%9)
	}

	// Rentals, a broken row and a wild outlier exercise the stages
	// between fetch and training.
	b.WriteString("OLX,aluguel,\"1.800,00\",60,2,1,apartamento,Centro,Teresina,,https://olx.com.br/anuncio/900,2025-03-01T00:00:00Z\n")
	b.WriteString("OLX,venda,,80,2,1,casa,Centro,Teresina,,https://olx.com.br/anuncio/901,2025-03-01T00:00:00Z\n")
	b.WriteString("OLX,venda,99000000,30,1,1,kitnet,Centro,Teresina,,https://olx.com.br/anuncio/902,2025-03-01T00:00:00Z\n")

	path := filepath.Join(dir, "anuncios.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func writeIndexCSV(t *testing.T, dir string) string {
	t.Helper()

	content := "cidade,periodo,venda_m2,aluguel_m2\n" +
		"Teresina,2025-02,4400.00,22.10\n" +
		"Teresina,2025-03,4500.00,22.50\n"

	path := filepath.Join(dir, "indice_economico.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func testConfig(t *testing.T, listings int) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		Input: config.InputConfig{
			Kind:    "csv",
			CSVPath: writeListingsCSV(t, dir, listings),
		},
		Enrichment: config.EnrichmentConfig{
			IndexPath:  writeIndexCSV(t, dir),
			GeoBuckets: map[string]string{"Centro": "centro"},
		},
		Quality: config.QualityConfig{IQRMultiplier: 1.5},
		Training: config.TrainingConfig{
			PreferredSource: "OLX",
			MinSegmentRows:  15,
			HoldoutRatio:    0.2,
			Seed:            42,
			Candidates: []trainer.CandidateConfig{
				{Name: "regressao_ridge", Kind: trainer.KindRidge},
			},
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

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t, 40)

	summary, err := New(cfg, logger.New("error")).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Fetched != 43 {
		t.Errorf("Fetched = %d, want 43", summary.Fetched)
	}

	if summary.Normalized != 42 {
		t.Errorf("Normalized = %d, want 42 (one row has no price)", summary.Normalized)
	}

	if summary.Kept >= summary.Normalized {
		t.Errorf("Kept = %d, want the outlier dropped", summary.Kept)
	}

	if summary.PrimarySegment != "fonte_olx__negocio_venda" {
		t.Errorf("PrimarySegment = %q", summary.PrimarySegment)
	}

	if summary.ArtifactVersion == "" {
		t.Error("expected an exported artifact version")
	}

	if len(summary.Trained) == 0 {
		t.Fatal("expected at least one trained segment")
	}

	// The published pair must load and serve.
	pair, err := artifacts.NewStore(cfg.Output.ArtifactDir).LoadCurrent()
	if err != nil {
		t.Fatalf("LoadCurrent: %v", err)
	}

	if pair.Version != summary.ArtifactVersion {
		t.Errorf("published version %q, summary says %q", pair.Version, summary.ArtifactVersion)
	}

	// Datasets and the data dictionary land in the run directory.
	primaryFile := filepath.Join(summary.RunDir, "dataset_fonte_olx__negocio_venda.tab")
	if _, err := os.Stat(primaryFile); err != nil {
		t.Errorf("primary dataset file: %v", err)
	}

	dict, err := os.ReadFile(filepath.Join(summary.RunDir, "dicionario_dados.txt"))
	if err != nil {
		t.Fatalf("data dictionary: %v", err)
	}

	if !strings.Contains(string(dict), "area_m2") {
		t.Error("data dictionary must list encoded columns")
	}

	if _, err := os.Stat(cfg.Output.MetricsLog); err != nil {
		t.Errorf("metrics log: %v", err)
	}
}

func TestPipeline_PrimaryTooSmall(t *testing.T) {
	cfg := testConfig(t, 5)

	_, err := New(cfg, logger.New("error")).Run(context.Background())
	if !errors.Is(err, ErrPrimarySegmentTooSmall) {
		t.Fatalf("err = %v, want ErrPrimarySegmentTooSmall", err)
	}

	// Nothing may be published on failure.
	if _, err := artifacts.NewStore(cfg.Output.ArtifactDir).LoadCurrent(); !errors.Is(err, artifacts.ErrUnavailable) {
		t.Errorf("LoadCurrent err = %v, want ErrUnavailable", err)
	}
}

// Two runs never collide: datasets land in distinct run directories
// and the metrics history grows instead of being rewritten.
func TestPipeline_RunsDoNotOverwrite(t *testing.T) {
	cfg := testConfig(t, 40)
	p := New(cfg, logger.New("error"))

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if first.RunDir == second.RunDir {
		t.Errorf("run dirs collide: %q", first.RunDir)
	}

	if first.ArtifactVersion == second.ArtifactVersion {
		t.Errorf("artifact versions collide: %q", first.ArtifactVersion)
	}

	content, err := os.ReadFile(cfg.Output.MetricsLog)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Count(strings.TrimRight(string(content), "\n"), "\n") + 1
	wantRows := len(first.Trained) + len(second.Trained)
	if lines != wantRows+1 {
		t.Errorf("metrics log has %d lines, want header + %d rows", lines, wantRows)
	}
}
