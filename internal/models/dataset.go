package models

import "especulai/pkg/slug"

// SegmentName is the name of the all-sources, all-business segment.
const SegmentAll = "completo"

// SegmentKey identifies a partition of the enriched dataset. An empty
// Source means all sources, an empty BusinessType means all business
// types; both empty is the combined segment.
type SegmentKey struct {
	Source       string
	BusinessType BusinessType
}

// Name returns the deterministic segment name used in dataset filenames,
// e.g. "fonte_olx", "negocio_venda" or "fonte_olx__negocio_venda".
func (k SegmentKey) Name() string {
	switch {
	case k.Source == "" && k.BusinessType == "":
		return SegmentAll
	case k.BusinessType == "":
		return "fonte_" + slug.Make(k.Source)
	case k.Source == "":
		return "negocio_" + slug.Make(string(k.BusinessType))
	default:
		return "fonte_" + slug.Make(k.Source) + "__negocio_" + slug.Make(string(k.BusinessType))
	}
}

// Dataset is a named, ordered collection of enriched listings that
// passed the quality filter. Datasets are rebuilt on every run and
// persisted under a run-scoped directory, never overwritten in place.
type Dataset struct {
	Key  SegmentKey
	Rows []EnrichedListing
}

// Name returns the segment name of the dataset.
func (d *Dataset) Name() string {
	return d.Key.Name()
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}
