package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"especulai/internal/models"
)

func sampleDataset() *models.Dataset {
	return &models.Dataset{
		Key: models.SegmentKey{Source: "OLX", BusinessType: models.BusinessSale},
		Rows: []models.EnrichedListing{
			{
				CanonicalListing: models.CanonicalListing{
					Source:       "OLX",
					BusinessType: models.BusinessSale,
					Price:        450000,
					Area:         85.5,
					Rooms:        3,
					Bathrooms:    2,
					PropertyType: "apartamento",
					Neighborhood: "Jardins",
					City:         "São Paulo",
					CollectedAt:  time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
				},
				GeoBucket:   "zona oeste",
				GeoResolved: true,
				IndexValue:  4900,
				Enriched:    true,
			},
			{
				CanonicalListing: models.CanonicalListing{
					Source:       "OLX",
					BusinessType: models.BusinessSale,
					Price:        210000,
					Area:         60,
					Rooms:        2,
					Bathrooms:    1,
					PropertyType: "casa",
					Neighborhood: "Vila Nova",
					City:         "Teresina",
				},
				GeoBucket: "Vila Nova",
			},
		},
	}
}

func TestWriteReadDataset(t *testing.T) {
	dir := t.TempDir()
	ds := sampleDataset()

	path, err := WriteDataset(dir, ds)
	if err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}

	if filepath.Base(path) != "dataset_fonte_olx__negocio_venda.tab" {
		t.Errorf("file name = %q", filepath.Base(path))
	}

	got, err := ReadDataset(path, ds.Key)
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}

	if !reflect.DeepEqual(got, ds) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, ds)
	}
}

func TestDatasetFileIsSelfDescribing(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteDataset(dir, sampleDataset())
	if err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := strings.Split(string(content), "\n")
	if !strings.HasPrefix(lines[0], "fonte\ttipo_negocio\tvalor_anuncio") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestReadDataset_BadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset_x.tab")
	if err := os.WriteFile(path, []byte("colA\tcolB\n1\t2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadDataset(path, models.SegmentKey{})
	if !errors.Is(err, ErrDatasetBadSchema) {
		t.Fatalf("err = %v, want ErrDatasetBadSchema", err)
	}
}

func TestReadDataset_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset_vazio.tab")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadDataset(path, models.SegmentKey{})
	if !errors.Is(err, ErrDatasetEmptyFile) {
		t.Fatalf("err = %v, want ErrDatasetEmptyFile", err)
	}
}

// Two runs started back to back must land in distinct directories.
func TestNewRunDir(t *testing.T) {
	base := t.TempDir()

	first, err := NewRunDir(base)
	if err != nil {
		t.Fatalf("NewRunDir: %v", err)
	}

	second, err := NewRunDir(base)
	if err != nil {
		t.Fatalf("NewRunDir: %v", err)
	}

	if first == second {
		t.Errorf("run dirs collide: %q", first)
	}

	for _, dir := range []string{first, second} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("run dir %q not created: %v", dir, err)
		}
	}
}
