// Package inference is the serving-side read path: it loads the
// exported artifact pair, validates and transforms a single listing
// query, and returns a price estimate with a confidence label.
package inference

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"especulai/internal/artifacts"
	"especulai/internal/models"
	"especulai/internal/normalizer"
)

// ErrModelUnavailable distinguishes a degraded serving state (no
// loadable artifact pair) from a bad request.
var ErrModelUnavailable = artifacts.ErrUnavailable

// ValidationError is a structured bad-request error naming the field
// that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Adapter serves predictions against an immutable, atomically swapped
// artifact pair. Concurrent requests may share one loaded pair; a
// reload either fully replaces it or leaves the old pair serving.
type Adapter struct {
	store *artifacts.Store
	pair  atomic.Pointer[artifacts.Pair]
}

// NewAdapter creates an adapter over the given store. No pair is
// loaded yet; call Reload before serving.
func NewAdapter(store *artifacts.Store) *Adapter {
	return &Adapter{store: store}
}

// Reload loads the pair named by the store's current pointer and swaps
// it in atomically. On failure the previously loaded pair, if any,
// keeps serving.
func (a *Adapter) Reload() error {
	pair, err := a.store.LoadCurrent()
	if err != nil {
		return err
	}

	a.pair.Store(pair)

	return nil
}

// Ready reports whether an artifact pair is loaded.
func (a *Adapter) Ready() bool {
	return a.pair.Load() != nil
}

// Version returns the loaded pair's version, or empty when none is
// loaded.
func (a *Adapter) Version() string {
	if pair := a.pair.Load(); pair != nil {
		return pair.Version
	}

	return ""
}

// Predict runs one request through the
// received → validated → transformed → scored → responded states.
// Validation failures return a *ValidationError; a missing pair
// returns ErrModelUnavailable. The system never substitutes a default
// price.
func (a *Adapter) Predict(req models.PredictionRequest) (models.PredictionResponse, error) {
	// The pair reference is read once per request so a concurrent
	// swap cannot tear the preprocessor away from its model.
	pair := a.pair.Load()
	if pair == nil {
		return models.PredictionResponse{}, fmt.Errorf("%w: no artifact pair loaded", ErrModelUnavailable)
	}

	if err := validate(req); err != nil {
		return models.PredictionResponse{}, err
	}

	vector := pair.Preprocessor.TransformQuery(req)

	estimate, err := pair.Model.Predict(vector)
	if err != nil {
		return models.PredictionResponse{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	return models.PredictionResponse{
		EstimatedPrice: estimate,
		Confidence:     pair.Model.ConfidenceFor(estimate),
	}, nil
}

// IsValidationError reports whether err is a bad request as opposed to
// a degraded-model condition.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// validate applies the same normalization rules as the pipeline's
// normalizer before checking the request fields.
func validate(req models.PredictionRequest) error {
	if req.Area <= 0 {
		return &ValidationError{Field: "area", Reason: "must be greater than zero"}
	}

	if req.Rooms < 0 {
		return &ValidationError{Field: "quartos", Reason: "must not be negative"}
	}

	if req.Bathrooms < 0 {
		return &ValidationError{Field: "banheiros", Reason: "must not be negative"}
	}

	if strings.TrimSpace(req.Type) == "" {
		return &ValidationError{Field: "tipo", Reason: "must be present"}
	}

	if normalizer.NormalizeText(req.Bairro) == "" {
		return &ValidationError{Field: "bairro", Reason: "must not be empty"}
	}

	if normalizer.NormalizeText(req.Cidade) == "" {
		return &ValidationError{Field: "cidade", Reason: "must not be empty"}
	}

	return nil
}
