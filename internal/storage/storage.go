// Package storage provides the input sources for raw listings and the
// persistence of per-segment training datasets. Sources sit at the
// boundary with the collector: the pipeline never reaches into how
// listings were scraped, only into the declared record shape.
package storage

import (
	"context"

	"especulai/internal/models"
)

// RawSource is the interface any raw listing backend must satisfy.
type RawSource interface {
	Fetch(ctx context.Context) ([]models.RawListing, error)
	Close() error
}
