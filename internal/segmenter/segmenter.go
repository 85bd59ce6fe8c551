// Package segmenter partitions the filtered dataset along source and
// business-type dimensions into named, independently usable datasets.
package segmenter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"especulai/internal/models"
)

// Segmentation errors.
var (
	ErrNoRows           = errors.New("no rows to segment")
	ErrNoPrimaryDataset = errors.New("no sale rows available for the primary training dataset")
)

// unknownSource matches the label the normalizer assigns when a source
// cannot be determined. Such rows stay in the combined and
// business-type segments but get no per-source segment of their own.
const unknownSource = "desconhecida"

// Segmenter builds the segment map. The preferred source is a named,
// inspectable configuration choice, not a hidden branch: when listings
// from that source exist, the primary training dataset uses it
// exclusively to avoid cross-source bias.
type Segmenter struct {
	preferredSource string
}

// New creates a segmenter with the given preferred source (may be
// empty for no preference).
func New(preferredSource string) *Segmenter {
	return &Segmenter{preferredSource: preferredSource}
}

// Segmentation is the result of one segmentation pass.
type Segmentation struct {
	// Datasets maps segment name to dataset. Includes the combined
	// segment, one per source, one per business type, and one per
	// non-empty source × business type pair.
	Datasets map[string]*models.Dataset

	// PrimaryName is the segment selected for training the definitive
	// model. Always a sale-only segment.
	PrimaryName string
}

// Primary returns the primary training dataset.
func (s *Segmentation) Primary() *models.Dataset {
	return s.Datasets[s.PrimaryName]
}

// Names returns all segment names in deterministic order.
func (s *Segmentation) Names() []string {
	names := make([]string, 0, len(s.Datasets))
	for name := range s.Datasets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Split partitions the rows. Every row lands in the combined segment,
// in exactly one business-type segment, and (when its source is known)
// in its source segment and source × business pair. Rental rows are
// never mixed into sale datasets: the two are disjoint training
// targets.
func (s *Segmenter) Split(rows []models.EnrichedListing) (*Segmentation, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	datasets := make(map[string]*models.Dataset)

	add := func(key models.SegmentKey, row models.EnrichedListing) {
		name := key.Name()

		ds, ok := datasets[name]
		if !ok {
			ds = &models.Dataset{Key: key}
			datasets[name] = ds
		}

		ds.Rows = append(ds.Rows, row)
	}

	for _, row := range rows {
		add(models.SegmentKey{}, row)
		add(models.SegmentKey{BusinessType: row.BusinessType}, row)

		if !knownSource(row.Source) {
			continue
		}

		add(models.SegmentKey{Source: row.Source}, row)
		add(models.SegmentKey{Source: row.Source, BusinessType: row.BusinessType}, row)
	}

	primary, err := s.pickPrimary(datasets)
	if err != nil {
		return nil, err
	}

	return &Segmentation{Datasets: datasets, PrimaryName: primary}, nil
}

// pickPrimary selects the sale-only training segment: the preferred
// source's sale segment when it has rows, otherwise all sale rows.
func (s *Segmenter) pickPrimary(datasets map[string]*models.Dataset) (string, error) {
	if s.preferredSource != "" {
		preferred := models.SegmentKey{
			Source:       s.preferredSource,
			BusinessType: models.BusinessSale,
		}.Name()
		if ds, ok := datasets[preferred]; ok && ds.Len() > 0 {
			return preferred, nil
		}
	}

	fallback := models.SegmentKey{BusinessType: models.BusinessSale}.Name()
	if ds, ok := datasets[fallback]; ok && ds.Len() > 0 {
		return fallback, nil
	}

	return "", fmt.Errorf("%w (preferred source %q)", ErrNoPrimaryDataset, s.preferredSource)
}

func knownSource(source string) bool {
	return source != "" && !strings.EqualFold(source, unknownSource)
}
