// Package enrichment augments canonical listings with geospatial
// buckets and economic reference prices. It never fabricates values:
// rows without a match are flagged, not defaulted.
package enrichment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"especulai/internal/models"
	"especulai/pkg/slug"
)

// Economic index errors.
var (
	ErrIndexFileMissing = errors.New("economic index file not found")
	ErrIndexEmpty       = errors.New("economic index has no entries")
	ErrIndexBadSchema   = errors.New("economic index schema mismatch")
)

// indexColumns is the declared schema of the index file, in order.
var indexColumns = []string{"cidade", "periodo", "venda_m2", "aluguel_m2"}

// IndexEntry is one reference-price record for a (city, period) pair.
type IndexEntry struct {
	City     string
	Period   string
	SaleM2   float64
	RentalM2 float64
}

// EconomicIndex holds reference prices per m² keyed by city and period.
// Values are read-only after loading.
type EconomicIndex struct {
	byCity map[string]map[string]IndexEntry
	latest map[string]IndexEntry
}

// LoadEconomicIndex reads the index from a CSV file with the declared
// schema (cidade, periodo, venda_m2, aluguel_m2). A missing file is a
// configuration error naming the path.
func LoadEconomicIndex(path string) (*EconomicIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexFileMissing, path)
	}
	defer f.Close()

	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexEmpty, path)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[slug.NormalizeWhitespace(h)] = i
	}

	for _, want := range indexColumns {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("%w: missing column %q in %s", ErrIndexBadSchema, want, path)
		}
	}

	idx := &EconomicIndex{
		byCity: make(map[string]map[string]IndexEntry),
		latest: make(map[string]IndexEntry),
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read economic index: %w", err)
		}

		entry, err := parseIndexRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("parse economic index row: %w", err)
		}

		idx.add(entry)
	}

	if len(idx.latest) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIndexEmpty, path)
	}

	return idx, nil
}

func parseIndexRecord(record []string, cols map[string]int) (IndexEntry, error) {
	sale, err := strconv.ParseFloat(record[cols["venda_m2"]], 64)
	if err != nil {
		return IndexEntry{}, fmt.Errorf("venda_m2: %w", err)
	}

	rental, err := strconv.ParseFloat(record[cols["aluguel_m2"]], 64)
	if err != nil {
		return IndexEntry{}, fmt.Errorf("aluguel_m2: %w", err)
	}

	return IndexEntry{
		City:     record[cols["cidade"]],
		Period:   record[cols["periodo"]],
		SaleM2:   sale,
		RentalM2: rental,
	}, nil
}

func (idx *EconomicIndex) add(entry IndexEntry) {
	key := slug.Make(entry.City)

	periods, ok := idx.byCity[key]
	if !ok {
		periods = make(map[string]IndexEntry)
		idx.byCity[key] = periods
	}

	periods[entry.Period] = entry

	// Periods are "YYYY-MM", so lexical comparison picks the newest.
	if current, ok := idx.latest[key]; !ok || entry.Period > current.Period {
		idx.latest[key] = entry
	}
}

// Lookup returns the reference price per m² for a city, period and
// business type. When the exact period has no entry, the newest entry
// for the city is used. The second return is false when the city has
// no entries at all.
func (idx *EconomicIndex) Lookup(city, period string, business models.BusinessType) (float64, bool) {
	key := slug.Make(city)

	entry, ok := idx.byCity[key][period]
	if !ok {
		entry, ok = idx.latest[key]
		if !ok {
			return 0, false
		}
	}

	if business == models.BusinessRental {
		return entry.RentalM2, true
	}

	return entry.SaleM2, true
}

// Cities returns the number of cities with at least one entry.
func (idx *EconomicIndex) Cities() int {
	return len(idx.latest)
}

// LatestByCity returns the newest sale reference per city keyed by the
// city slug. The encoder freezes this map into the preprocessing
// artifact so inference can reproduce the join without the index file.
func (idx *EconomicIndex) LatestByCity(business models.BusinessType) map[string]float64 {
	out := make(map[string]float64, len(idx.latest))

	for key, entry := range idx.latest {
		if business == models.BusinessRental {
			out[key] = entry.RentalM2
		} else {
			out[key] = entry.SaleM2
		}
	}

	return out
}
