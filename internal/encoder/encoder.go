// Package encoder fits the feature transformation on a training
// dataset and freezes it into a reproducible preprocessing artifact.
// The frozen parameters are reapplied verbatim at inference, never
// refit.
package encoder

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"especulai/internal/models"
	"especulai/internal/normalizer"
	"especulai/pkg/slug"
)

// ErrEmptyDataset means there is nothing to fit the transformation on.
var ErrEmptyDataset = errors.New("cannot fit preprocessor on an empty dataset")

// Column names of the categorical features, in frozen order.
var categoricalColumns = []string{"tipo_imovel", "bairro", "cidade", "geo_bucket"}

// Column names of the numeric features, in frozen order.
var numericColumns = []string{"area_m2", "quartos", "banheiros", "densidade_comodos", "indice_m2"}

// Preprocessor is the frozen feature transformation: the one-hot
// vocabulary, the numeric scaling parameters, and the lookup tables
// needed to rebuild the feature space for a single query. It is owned
// by the training run that created it; inference holds it read-only.
type Preprocessor struct {
	PairingID string    `json:"pairing_id"`
	FittedOn  string    `json:"fitted_on"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`

	// Vocabulary maps each categorical column to its ordered set of
	// known categories. Categories outside the vocabulary encode to an
	// all-zero block, never an error.
	Vocabulary map[string][]string `json:"vocabulary"`

	// Means and Stds are the frozen scaling parameters for the numeric
	// columns, index-aligned with NumericColumns.
	NumericColumns []string  `json:"numeric_columns"`
	Means          []float64 `json:"means"`
	Stds           []float64 `json:"stds"`

	// IndexReference and GeoBuckets freeze the enrichment lookups so a
	// query can be joined without the original index file.
	IndexReference map[string]float64 `json:"index_reference"`
	GeoBuckets     map[string]string  `json:"geo_buckets"`
}

// Fit freezes the transformation on the given training dataset and
// returns the preprocessor together with the encoded feature matrix
// and target vector.
func Fit(ds *models.Dataset, indexReference map[string]float64, geoBuckets map[string]string) (*Preprocessor, [][]float64, []float64, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, nil, nil, ErrEmptyDataset
	}

	p := &Preprocessor{
		PairingID:      uuid.NewString(),
		FittedOn:       ds.Name(),
		RowCount:       ds.Len(),
		CreatedAt:      time.Now().UTC(),
		Vocabulary:     buildVocabulary(ds.Rows),
		NumericColumns: numericColumns,
		IndexReference: indexReference,
		GeoBuckets:     normalizeBuckets(geoBuckets),
	}

	raw := make([][]float64, ds.Len())
	for i, row := range ds.Rows {
		raw[i] = numericValues(row)
	}

	p.fitScaling(raw)

	matrix := make([][]float64, ds.Len())
	target := make([]float64, ds.Len())

	for i, row := range ds.Rows {
		matrix[i] = p.encode(raw[i], categoricalValues(row))
		target[i] = row.Price
	}

	return p, matrix, target, nil
}

// FeatureNames returns the ordered names of the encoded feature
// columns: numeric columns first, then one one-hot column per known
// category.
func (p *Preprocessor) FeatureNames() []string {
	names := make([]string, 0, p.FeatureCount())
	names = append(names, p.NumericColumns...)

	for _, col := range categoricalColumns {
		for _, category := range p.Vocabulary[col] {
			names = append(names, col+"_"+slug.Make(category))
		}
	}

	return names
}

// FeatureCount returns the width of the encoded feature vector.
func (p *Preprocessor) FeatureCount() int {
	n := len(p.NumericColumns)
	for _, col := range categoricalColumns {
		n += len(p.Vocabulary[col])
	}

	return n
}

// TransformRow encodes one enriched listing with the frozen
// parameters.
func (p *Preprocessor) TransformRow(row models.EnrichedListing) []float64 {
	return p.encode(numericValues(row), categoricalValues(row))
}

// TransformQuery encodes a single prediction query, reproducing the
// normalization and enrichment joins the pipeline applied to training
// rows. Unknown categories map to the all-zero block.
func (p *Preprocessor) TransformQuery(q models.PredictionRequest) []float64 {
	neighborhood := normalizer.TitleLocation(normalizer.NormalizeText(q.Bairro))
	city := normalizer.TitleLocation(normalizer.NormalizeText(q.Cidade))

	bucket, ok := p.GeoBuckets[slug.Make(neighborhood)]
	if !ok {
		bucket = neighborhood
	}

	indexValue := p.IndexReference[slug.Make(city)]

	numeric := []float64{
		q.Area,
		float64(q.Rooms),
		float64(q.Bathrooms),
		roomDensity(q.Rooms, q.Bathrooms, q.Area),
		indexValue,
	}

	categorical := map[string]string{
		"tipo_imovel": normalizePropertyType(q.Type),
		"bairro":      neighborhood,
		"cidade":      city,
		"geo_bucket":  bucket,
	}

	return p.encode(numeric, categorical)
}

// DecodeCategory inverts the one-hot block of a categorical column.
// The second return is false for the all-zero unknown representation.
func (p *Preprocessor) DecodeCategory(column string, vector []float64) (string, bool) {
	if len(vector) != p.FeatureCount() {
		return "", false
	}

	offset := len(p.NumericColumns)

	for _, col := range categoricalColumns {
		vocab := p.Vocabulary[col]
		if col != column {
			offset += len(vocab)

			continue
		}

		for i, category := range vocab {
			if vector[offset+i] == 1 {
				return category, true
			}
		}

		return "", false
	}

	return "", false
}

// encode scales the numeric values and appends the one-hot blocks.
func (p *Preprocessor) encode(numeric []float64, categorical map[string]string) []float64 {
	out := make([]float64, 0, p.FeatureCount())

	for i, v := range numeric {
		out = append(out, (v-p.Means[i])/p.Stds[i])
	}

	for _, col := range categoricalColumns {
		vocab := p.Vocabulary[col]
		block := make([]float64, len(vocab))

		value := categorical[col]
		for i, category := range vocab {
			if category == value {
				block[i] = 1

				break
			}
		}

		out = append(out, block...)
	}

	return out
}

// fitScaling freezes mean and standard deviation per numeric column.
// A constant column gets a unit deviation so scaling stays defined.
func (p *Preprocessor) fitScaling(raw [][]float64) {
	n := len(numericColumns)
	p.Means = make([]float64, n)
	p.Stds = make([]float64, n)

	column := make([]float64, len(raw))

	for i := 0; i < n; i++ {
		for j, rowValues := range raw {
			column[j] = rowValues[i]
		}

		p.Means[i] = stat.Mean(column, nil)

		p.Stds[i] = stat.StdDev(column, nil)
		if p.Stds[i] == 0 || len(raw) < 2 {
			p.Stds[i] = 1
		}
	}
}

func buildVocabulary(rows []models.EnrichedListing) map[string][]string {
	seen := make(map[string]map[string]bool, len(categoricalColumns))
	for _, col := range categoricalColumns {
		seen[col] = make(map[string]bool)
	}

	for _, row := range rows {
		for col, value := range categoricalValues(row) {
			if value != "" {
				seen[col][value] = true
			}
		}
	}

	vocab := make(map[string][]string, len(seen))

	for col, values := range seen {
		ordered := make([]string, 0, len(values))
		for v := range values {
			ordered = append(ordered, v)
		}

		sort.Strings(ordered)
		vocab[col] = ordered
	}

	return vocab
}

func numericValues(row models.EnrichedListing) []float64 {
	return []float64{
		row.Area,
		float64(row.Rooms),
		float64(row.Bathrooms),
		roomDensity(row.Rooms, row.Bathrooms, row.Area),
		row.IndexValue,
	}
}

func categoricalValues(row models.EnrichedListing) map[string]string {
	return map[string]string{
		"tipo_imovel": row.PropertyType,
		"bairro":      row.Neighborhood,
		"cidade":      row.City,
		"geo_bucket":  row.GeoBucket,
	}
}

// roomDensity is rooms plus bathrooms per m², with the area clamped to
// one to keep the ratio defined.
func roomDensity(rooms, bathrooms int, area float64) float64 {
	if area < 1 {
		area = 1
	}

	return float64(rooms+bathrooms) / area
}

func normalizePropertyType(s string) string {
	return strings.ToLower(normalizer.NormalizeText(s))
}

func normalizeBuckets(buckets map[string]string) map[string]string {
	out := make(map[string]string, len(buckets))
	for neighborhood, bucket := range buckets {
		out[slug.Make(neighborhood)] = bucket
	}

	return out
}
