// Package normalizer cleans raw scraped listings into the canonical
// typed schema, rejecting rows that cannot be coerced.
package normalizer

import (
	"especulai/internal/models"
)

// Result holds the outcome of one normalization pass. Every input row
// is accounted for: it either appears in Listings or is counted under
// its rejection reason.
type Result struct {
	Listings []models.CanonicalListing
	Rejected map[Reason]int
}

// RejectedTotal returns the number of rejected rows across all reasons.
func (r *Result) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}

	return total
}

// Processor wires the validator and transformer into one pass.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a processor recognizing the given property
// types (empty list for defaults).
func NewProcessor(propertyTypes []string) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(propertyTypes),
	}
}

// Process normalizes raw listings in input order. The output is
// deterministic for identical input.
func (p *Processor) Process(raws []models.RawListing) *Result {
	result := &Result{
		Listings: make([]models.CanonicalListing, 0, len(raws)),
		Rejected: make(map[Reason]int),
	}

	for _, raw := range raws {
		if reason, ok := p.validator.Validate(raw); !ok {
			result.Rejected[reason]++

			continue
		}

		canonical, reason, err := p.transformer.Transform(raw)
		if err != nil {
			result.Rejected[reason]++

			continue
		}

		result.Listings = append(result.Listings, canonical)
	}

	return result
}
