package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"especulai/internal/models"
)

func sampleRecords() []models.MetricsRecord {
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	return []models.MetricsRecord{
		{Timestamp: at, Segment: "fonte_olx__negocio_venda", Model: "gbm_medio", MAE: 31250.50, RMSE: 40210.75, R2: 0.8412, RowCount: 412},
		{Timestamp: at, Segment: "negocio_venda", Model: "gbm_raso", MAE: 35800.00, RMSE: 47100.25, R2: 0.7911, RowCount: 655},
	}
}

func TestLog_AppendAndReadAll(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "metricas.tab"))

	if err := log.Append(sampleRecords()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	if records[0].Segment != "fonte_olx__negocio_venda" || records[0].MAE != 31250.50 {
		t.Errorf("first record = %+v", records[0])
	}
}

// History is append-only: a second run adds lines, keeps old ones, and
// writes no second header.
func TestLog_AppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metricas.tab")
	log := NewLog(path)

	if err := log.Append(sampleRecords()[:1]); err != nil {
		t.Fatalf("first Append: %v", err)
	}

	if err := log.Append(sampleRecords()[1:]); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Count(string(content), "timestamp\t"); got != 1 {
		t.Errorf("header written %d times, want 1", got)
	}

	records, err := log.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestLog_ReadAllMissingFile(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "inexistente.tab"))

	records, err := log.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if records != nil {
		t.Errorf("records = %+v, want empty history", records)
	}
}

func TestLog_ReadAllBadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metricas.tab")
	if err := os.WriteFile(path, []byte("colA\tcolB\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLog(path).ReadAll()
	if !errors.Is(err, ErrLogBadSchema) {
		t.Fatalf("err = %v, want ErrLogBadSchema", err)
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleRecords())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("len(lines) = %d, want header + separator + 2 rows", len(lines))
	}

	if !strings.Contains(lines[0], "segmento") || !strings.Contains(lines[0], "mae") {
		t.Errorf("header = %q", lines[0])
	}

	width := len(lines[0])
	for i, line := range lines {
		if len(line) != width {
			t.Errorf("line %d width %d, want %d", i, len(line), width)
		}
	}

	if !strings.Contains(out, "gbm_medio") {
		t.Error("table must list the winning model")
	}
}
