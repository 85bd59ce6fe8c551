package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"especulai/internal/encoder"
	"especulai/internal/trainer"
)

func testPair(pairingID string) (*encoder.Preprocessor, *trainer.ModelArtifact) {
	p := &encoder.Preprocessor{
		PairingID:      pairingID,
		FittedOn:       "negocio_venda",
		NumericColumns: []string{"area_m2"},
		Means:          []float64{100},
		Stds:           []float64{25},
		Vocabulary:     map[string][]string{"tipo_imovel": {"apartamento", "casa"}},
	}

	m := &trainer.ModelArtifact{
		PairingID: pairingID,
		ModelID:   "gbm_medio",
		Segment:   "negocio_venda",
		Holdout:   trainer.Metrics{MAE: 25000, RMSE: 34000, R2: 0.82},
		Ridge:     &trainer.RidgeRegressor{Intercept: 1000, Weights: []float64{2, 0, 0}},
	}

	return p, m
}

func TestStore_ExportAndLoadCurrent(t *testing.T) {
	store := NewStore(t.TempDir())

	p, m := testPair("pair-1")

	version, err := store.Export(p, m)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	pair, err := store.LoadCurrent()
	if err != nil {
		t.Fatalf("LoadCurrent: %v", err)
	}

	if pair.Version != version {
		t.Errorf("Version = %q, want %q", pair.Version, version)
	}

	if pair.Preprocessor.PairingID != "pair-1" || pair.Model.PairingID != "pair-1" {
		t.Error("loaded pair lost its pairing ID")
	}

	if pair.Model.Holdout.MAE != 25000 {
		t.Errorf("Holdout.MAE = %v, want 25000", pair.Model.Holdout.MAE)
	}
}

func TestStore_ExportRejectsMismatchedPair(t *testing.T) {
	store := NewStore(t.TempDir())

	p, _ := testPair("pair-a")
	_, m := testPair("pair-b")

	if _, err := store.Export(p, m); !errors.Is(err, ErrPairingMismatch) {
		t.Errorf("err = %v, want ErrPairingMismatch", err)
	}
}

func TestStore_LoadCurrentWithoutExport(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.LoadCurrent(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

// A new export must not mutate previous versions; CURRENT moves only
// after the new blobs exist.
func TestStore_ExportVersioning(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	p1, m1 := testPair("pair-1")

	v1, err := store.Export(p1, m1)
	if err != nil {
		t.Fatalf("first Export: %v", err)
	}

	p2, m2 := testPair("pair-2")

	v2, err := store.Export(p2, m2)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}

	if v1 == v2 {
		t.Fatal("versions must differ")
	}

	// Both versions remain loadable.
	if _, err := store.Load(v1); err != nil {
		t.Errorf("Load(v1): %v", err)
	}

	current, err := store.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}

	if current != v2 {
		t.Errorf("CURRENT = %q, want %q", current, v2)
	}
}

func TestStore_TamperedBlobIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	p, m := testPair("pair-1")

	version, err := store.Export(p, m)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	blobPath := filepath.Join(dir, version, "modelo.json")
	if err := os.WriteFile(blobPath, []byte(`{"pairing_id":"pair-1"}`), 0644); err != nil {
		t.Fatalf("tamper blob: %v", err)
	}

	if _, err := store.LoadCurrent(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable for tampered blob", err)
	}
}
