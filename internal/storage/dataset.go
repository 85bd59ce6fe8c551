package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"especulai/internal/models"
)

// Dataset file errors.
var (
	ErrDatasetEmptyFile = errors.New("dataset: file has no header row")
	ErrDatasetBadSchema = errors.New("dataset: unexpected column layout")
)

// datasetColumns is the fixed column order of a persisted dataset.
// The header row makes each file self-describing; the order makes two
// runs over the same input byte-comparable.
var datasetColumns = []string{
	"fonte",
	"tipo_negocio",
	"valor_anuncio",
	"area_m2",
	"quartos",
	"banheiros",
	"tipo_imovel",
	"bairro",
	"cidade",
	"geo_bucket",
	"geo_resolvido",
	"indice_m2",
	"enriquecido",
	"data_coleta",
}

// NewRunDir creates a fresh directory for one pipeline run under base.
// The timestamp plus a short unique tag guarantees previous runs are
// never overwritten.
func NewRunDir(base string) (string, error) {
	name := fmt.Sprintf("run_%s_%s",
		time.Now().UTC().Format("20060102_150405"),
		uuid.NewString()[:8])

	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("dataset: create run dir: %w", err)
	}

	return dir, nil
}

// DatasetPath returns the file name a segment's dataset is written to.
func DatasetPath(dir, segment string) string {
	return filepath.Join(dir, "dataset_"+segment+".tab")
}

// WriteDataset persists one segment's rows as a tab-separated file
// with a header row.
func WriteDataset(dir string, ds *models.Dataset) (string, error) {
	path := DatasetPath(dir, ds.Name())

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("dataset: create %q: %w", path, err)
	}

	w := bufio.NewWriter(f)

	if _, err := w.WriteString(strings.Join(datasetColumns, "\t") + "\n"); err != nil {
		_ = f.Close()

		return "", fmt.Errorf("dataset: write header: %w", err)
	}

	for _, row := range ds.Rows {
		if _, err := w.WriteString(strings.Join(datasetRow(row), "\t") + "\n"); err != nil {
			_ = f.Close()

			return "", fmt.Errorf("dataset: write row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()

		return "", fmt.Errorf("dataset: flush %q: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("dataset: close %q: %w", path, err)
	}

	return path, nil
}

// ReadDataset loads a dataset file written by WriteDataset. The key is
// not encoded in the file, so the caller supplies it.
func ReadDataset(path string, key models.SegmentKey) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%w: %s", ErrDatasetEmptyFile, path)
	}

	if header := scanner.Text(); header != strings.Join(datasetColumns, "\t") {
		return nil, fmt.Errorf("%w: %s", ErrDatasetBadSchema, path)
	}

	ds := &models.Dataset{Key: key}

	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != len(datasetColumns) {
			return nil, fmt.Errorf("%w: row with %d fields in %s", ErrDatasetBadSchema, len(fields), path)
		}

		row, err := parseDatasetRow(fields)
		if err != nil {
			return nil, fmt.Errorf("dataset: parse %q: %w", path, err)
		}

		ds.Rows = append(ds.Rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}

	return ds, nil
}

func datasetRow(row models.EnrichedListing) []string {
	collected := ""
	if !row.CollectedAt.IsZero() {
		collected = row.CollectedAt.UTC().Format(time.RFC3339)
	}

	return []string{
		row.Source,
		string(row.BusinessType),
		formatFloat(row.Price),
		formatFloat(row.Area),
		strconv.Itoa(row.Rooms),
		strconv.Itoa(row.Bathrooms),
		row.PropertyType,
		row.Neighborhood,
		row.City,
		row.GeoBucket,
		strconv.FormatBool(row.GeoResolved),
		formatFloat(row.IndexValue),
		strconv.FormatBool(row.Enriched),
		collected,
	}
}

func parseDatasetRow(fields []string) (models.EnrichedListing, error) {
	var row models.EnrichedListing

	price, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return row, fmt.Errorf("valor_anuncio %q: %w", fields[2], err)
	}

	area, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return row, fmt.Errorf("area_m2 %q: %w", fields[3], err)
	}

	rooms, err := strconv.Atoi(fields[4])
	if err != nil {
		return row, fmt.Errorf("quartos %q: %w", fields[4], err)
	}

	baths, err := strconv.Atoi(fields[5])
	if err != nil {
		return row, fmt.Errorf("banheiros %q: %w", fields[5], err)
	}

	index, err := strconv.ParseFloat(fields[11], 64)
	if err != nil {
		return row, fmt.Errorf("indice_m2 %q: %w", fields[11], err)
	}

	row.Source = fields[0]
	row.BusinessType = models.BusinessType(fields[1])
	row.Price = price
	row.Area = area
	row.Rooms = rooms
	row.Bathrooms = baths
	row.PropertyType = fields[6]
	row.Neighborhood = fields[7]
	row.City = fields[8]
	row.GeoBucket = fields[9]
	row.GeoResolved = fields[10] == "true"
	row.IndexValue = index
	row.Enriched = fields[12] == "true"

	if fields[13] != "" {
		t, err := time.Parse(time.RFC3339, fields[13])
		if err != nil {
			return row, fmt.Errorf("data_coleta %q: %w", fields[13], err)
		}

		row.CollectedAt = t
	}

	return row, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
