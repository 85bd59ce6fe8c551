package trainer

import (
	"errors"
	"time"

	"especulai/internal/encoder"
	"especulai/internal/models"
)

// ErrNoModel is returned when an artifact carries no trained model.
var ErrNoModel = errors.New("model artifact carries no trained model")

// ConfidenceThresholds map the model's expected relative error onto the
// categorical confidence labels. They are frozen at export time and
// never recomputed per request.
type ConfidenceThresholds struct {
	High   float64 `json:"alta"`
	Medium float64 `json:"media"`
}

// DefaultConfidenceThresholds are applied when none are configured.
var DefaultConfidenceThresholds = ConfidenceThresholds{High: 0.15, Medium: 0.35}

// ModelArtifact is the frozen definitive model: the winning regressor,
// its held-out scores, the confidence mapping, and the pairing ID of
// the preprocessor whose output it was trained on. Exactly one of the
// model fields is populated.
type ModelArtifact struct {
	PairingID  string    `json:"pairing_id"`
	ModelID    string    `json:"model_id"`
	Segment    string    `json:"segment"`
	TrainedAt  time.Time `json:"trained_at"`
	TrainRows  int       `json:"train_rows"`
	TestRows   int       `json:"test_rows"`
	Holdout    Metrics   `json:"holdout"`

	Booster *GBMRegressor   `json:"booster,omitempty"`
	Ridge   *RidgeRegressor `json:"ridge,omitempty"`

	Confidence ConfidenceThresholds `json:"confidence"`
}

// Export freezes the winning candidate into a model artifact bound to
// the preprocessor that produced its training features.
func Export(result *Result, p *encoder.Preprocessor, thresholds ConfidenceThresholds) *ModelArtifact {
	winner := result.Winner()

	artifact := &ModelArtifact{
		PairingID:  p.PairingID,
		ModelID:    winner.Config.Name,
		Segment:    p.FittedOn,
		TrainedAt:  time.Now().UTC(),
		TrainRows:  result.TrainRows,
		TestRows:   result.TestRows,
		Holdout:    winner.TestMetrics,
		Confidence: thresholds,
	}

	switch m := winner.model.(type) {
	case *GBMRegressor:
		artifact.Booster = m
	case *RidgeRegressor:
		artifact.Ridge = m
	}

	return artifact
}

// Predict scores one encoded feature vector.
func (a *ModelArtifact) Predict(x []float64) (float64, error) {
	switch {
	case a.Booster != nil:
		return a.Booster.Predict(x), nil
	case a.Ridge != nil:
		return a.Ridge.Predict(x), nil
	default:
		return 0, ErrNoModel
	}
}

// ConfidenceFor maps an estimate onto a confidence label using the
// frozen thresholds: the model's held-out MAE relative to the estimate
// is the expected relative error.
func (a *ModelArtifact) ConfidenceFor(estimate float64) models.ConfidenceLabel {
	if estimate < 1 {
		return models.ConfidenceLow
	}

	relative := a.Holdout.MAE / estimate

	switch {
	case relative <= a.Confidence.High:
		return models.ConfidenceHigh
	case relative <= a.Confidence.Medium:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
