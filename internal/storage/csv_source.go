package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"especulai/internal/models"
)

// Schema contract errors. A file that does not declare the required
// columns is a configuration problem, reported by name, never guessed
// around.
var (
	ErrCSVEmpty         = errors.New("csv source: file has no header row")
	ErrCSVMissingColumn = errors.New("csv source: required column missing")
)

// requiredColumns must all be present in the header. valor_anuncio,
// area_m2 and tipo_negocio are what downstream validation keys on;
// the rest carry the categorical and provenance fields.
var requiredColumns = []string{
	"tipo_negocio",
	"valor_anuncio",
	"area_m2",
	"tipo_imovel",
}

// optionalColumns are mapped when present and left empty otherwise.
var optionalColumns = []string{
	"fonte",
	"quartos",
	"banheiros",
	"bairro",
	"cidade",
	"localizacao",
	"url_anuncio",
	"data_coleta",
}

// CSVSource reads raw listings from a collector-produced CSV file.
// The schema contract is validated when the source is opened, before
// any row is read.
type CSVSource struct {
	path    string
	file    *os.File
	columns map[string]int
}

// NewCSVSource opens the file and validates its header against the
// schema contract. Extra columns are ignored.
func NewCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv source: open %q: %w", path, err)
	}

	header, err := csv.NewReader(f).Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrCSVEmpty, path)
		}

		return nil, fmt.Errorf("csv source: read header of %q: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			_ = f.Close()

			return nil, fmt.Errorf("%w: %q in %s", ErrCSVMissingColumn, name, path)
		}
	}

	return &CSVSource{path: path, file: f, columns: columns}, nil
}

// Fetch reads every remaining record. Field text is passed through
// untouched; coercion and rejection are the normalizer's job.
func (s *CSVSource) Fetch(ctx context.Context) ([]models.RawListing, error) {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("csv source: rewind %q: %w", s.path, err)
	}

	r := csv.NewReader(s.file)
	r.FieldsPerRecord = -1

	// Skip the header validated at open.
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("csv source: reread header of %q: %w", s.path, err)
	}

	var listings []models.RawListing

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv source: read %q: %w", s.path, err)
		}

		listings = append(listings, s.toListing(record))
	}

	return listings, nil
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}

func (s *CSVSource) toListing(record []string) models.RawListing {
	field := func(name string) string {
		idx, ok := s.columns[name]
		if !ok || idx >= len(record) {
			return ""
		}

		return record[idx]
	}

	l := models.RawListing{
		Source:       field("fonte"),
		BusinessType: field("tipo_negocio"),
		Price:        field("valor_anuncio"),
		Area:         field("area_m2"),
		Rooms:        field("quartos"),
		Bathrooms:    field("banheiros"),
		PropertyType: field("tipo_imovel"),
		Neighborhood: field("bairro"),
		City:         field("cidade"),
		Location:     field("localizacao"),
		URL:          field("url_anuncio"),
	}

	if raw := field("data_coleta"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			l.CollectedAt = t
		} else if t, err := time.Parse("2006-01-02", raw); err == nil {
			l.CollectedAt = t
		}
	}

	return l
}
