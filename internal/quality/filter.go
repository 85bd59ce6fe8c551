// Package quality removes outliers and invalid rows from the enriched
// dataset before segmentation.
package quality

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat"

	"especulai/internal/models"
)

// ErrEmptyResult is returned when filtering leaves zero rows. Training
// must never proceed on an empty dataset, so the run fails loudly.
var ErrEmptyResult = errors.New("quality filter produced an empty dataset")

// DefaultIQRMultiplier is the interquartile-range multiplier applied
// when none is configured.
const DefaultIQRMultiplier = 1.5

// DropReason identifies why a row was dropped.
type DropReason string

// Drop reasons.
const (
	DropOutlier         DropReason = "fora_da_banda_iqr"
	DropZeroPlaceholder DropReason = "zero_invalido"
)

// band is the accepted price-per-area interval for one business type.
type band struct {
	lower float64
	upper float64
}

// Filter rejects rows whose price-per-area falls outside a band derived
// from the interquartile range of their business type. Sale and rental
// distributions differ structurally, so each gets its own band.
type Filter struct {
	multiplier float64
}

// NewFilter creates a filter with the given IQR multiplier; a
// non-positive value falls back to DefaultIQRMultiplier.
func NewFilter(multiplier float64) *Filter {
	if multiplier <= 0 {
		multiplier = DefaultIQRMultiplier
	}

	return &Filter{multiplier: multiplier}
}

// Result holds the surviving rows in input order plus the dropped-row
// count by reason.
type Result struct {
	Rows    []models.EnrichedListing
	Dropped map[DropReason]int
}

// DroppedTotal returns the number of dropped rows across all reasons.
func (r *Result) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}

	return total
}

// Apply filters the rows. The same input and multiplier always produce
// the same output. An empty result is an error, not a valid dataset.
func (f *Filter) Apply(rows []models.EnrichedListing) (*Result, error) {
	bands := f.computeBands(rows)

	result := &Result{
		Rows:    make([]models.EnrichedListing, 0, len(rows)),
		Dropped: make(map[DropReason]int),
	}

	for _, row := range rows {
		// Placeholder zeros that slipped through earlier coercion
		// are invalid values, not legitimate zero prices or areas.
		if row.Price <= 0 || row.Area <= 0 {
			result.Dropped[DropZeroPlaceholder]++

			continue
		}

		b := bands[row.BusinessType]

		ratio := row.PricePerArea()
		if ratio < b.lower || ratio > b.upper {
			result.Dropped[DropOutlier]++

			continue
		}

		result.Rows = append(result.Rows, row)
	}

	if len(result.Rows) == 0 {
		return nil, ErrEmptyResult
	}

	return result, nil
}

// computeBands derives the accepted interval per business type from
// the quartiles of price-per-area.
func (f *Filter) computeBands(rows []models.EnrichedListing) map[models.BusinessType]band {
	ratios := make(map[models.BusinessType][]float64)

	for _, row := range rows {
		if row.Price <= 0 || row.Area <= 0 {
			continue
		}

		ratios[row.BusinessType] = append(ratios[row.BusinessType], row.PricePerArea())
	}

	bands := make(map[models.BusinessType]band, len(ratios))

	for business, values := range ratios {
		sort.Float64s(values)

		q1 := stat.Quantile(0.25, stat.Empirical, values, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, values, nil)
		iqr := q3 - q1

		bands[business] = band{
			lower: q1 - f.multiplier*iqr,
			upper: q3 + f.multiplier*iqr,
		}
	}

	return bands
}
