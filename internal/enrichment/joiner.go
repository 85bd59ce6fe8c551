package enrichment

import (
	"time"

	"especulai/internal/models"
	"especulai/pkg/slug"
)

// Joiner performs the left join of canonical listings against the
// economic index and the geospatial bucket table.
type Joiner struct {
	index   *EconomicIndex
	buckets map[string]string
}

// NewJoiner creates a joiner. The bucket table maps neighborhood slugs
// to coarse location buckets; it may be nil when no table is
// configured, in which case every location is unresolved.
func NewJoiner(index *EconomicIndex, buckets map[string]string) *Joiner {
	normalized := make(map[string]string, len(buckets))
	for neighborhood, bucket := range buckets {
		normalized[slug.Make(neighborhood)] = bucket
	}

	return &Joiner{index: index, buckets: normalized}
}

// Enrich joins every listing, in order. Absent index entries and
// unmapped locations flag the row instead of rejecting it, so
// downstream stages decide whether to include such rows.
func (j *Joiner) Enrich(listings []models.CanonicalListing) []models.EnrichedListing {
	out := make([]models.EnrichedListing, 0, len(listings))

	for _, l := range listings {
		enriched := models.EnrichedListing{CanonicalListing: l}

		if bucket, ok := j.buckets[slug.Make(l.Neighborhood)]; ok {
			enriched.GeoBucket = bucket
			enriched.GeoResolved = true
		} else {
			enriched.GeoBucket = l.Neighborhood
		}

		if value, ok := j.index.Lookup(l.City, periodOf(l.CollectedAt), l.BusinessType); ok {
			enriched.IndexValue = value
			enriched.Enriched = true
		}

		out = append(out, enriched)
	}

	return out
}

// periodOf maps a collection timestamp onto the index period key.
func periodOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("2006-01")
}
