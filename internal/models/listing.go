// Package models defines data structures shared across the pipeline stages.
package models

import "time"

// BusinessType classifies a listing as a sale or a rental offer.
// Prices are never comparable across this boundary.
type BusinessType string

// Known business types.
const (
	BusinessSale   BusinessType = "venda"
	BusinessRental BusinessType = "aluguel"
)

// RawListing is a scraped record exactly as the collector produced it.
// Numeric fields are still free text ("R$ 450.000", "85 m²") and the
// location may be a combined "bairro, cidade" string depending on source.
type RawListing struct {
	Source       string    `json:"fonte"`
	BusinessType string    `json:"tipo_negocio"`
	Price        string    `json:"valor_anuncio"`
	Area         string    `json:"area_m2"`
	Rooms        string    `json:"quartos"`
	Bathrooms    string    `json:"banheiros"`
	PropertyType string    `json:"tipo_imovel"`
	Neighborhood string    `json:"bairro"`
	City         string    `json:"cidade"`
	Location     string    `json:"localizacao"`
	URL          string    `json:"url_anuncio"`
	CollectedAt  time.Time `json:"data_coleta"`
}

// CanonicalListing is a RawListing with every field coerced to its typed
// form. A CanonicalListing only exists if all mandatory coercions
// succeeded; otherwise the row was rejected with a reason.
type CanonicalListing struct {
	Source       string       `json:"fonte"`
	BusinessType BusinessType `json:"tipo_negocio"`
	Price        float64      `json:"valor_anuncio"`
	Area         float64      `json:"area_m2"`
	Rooms        int          `json:"quartos"`
	Bathrooms    int          `json:"banheiros"`
	PropertyType string       `json:"tipo_imovel"`
	Neighborhood string       `json:"bairro"`
	City         string       `json:"cidade"`
	CollectedAt  time.Time    `json:"data_coleta"`
}

// PricePerArea returns the listing price divided by its area.
// Callers must guarantee Area > 0.
func (c CanonicalListing) PricePerArea() float64 {
	return c.Price / c.Area
}

// EnrichedListing is a CanonicalListing augmented with a coarse
// geospatial bucket and the economic index value for its city.
// Enrichment never fabricates data: an absent index entry leaves
// Enriched false, an unmapped location leaves GeoResolved false.
type EnrichedListing struct {
	CanonicalListing

	// GeoBucket is the coarse location bucket ("zona leste" etc.).
	// When GeoResolved is false it holds the raw neighborhood text.
	GeoBucket   string `json:"geo_bucket"`
	GeoResolved bool   `json:"geo_resolvido"`

	// IndexValue is the reference price per m² for the listing's city
	// and business type. Zero with Enriched false means no index entry
	// matched, never a legitimate zero reference.
	IndexValue float64 `json:"indice_m2"`
	Enriched   bool    `json:"enriquecido"`
}
