package trainer

import (
	"testing"

	"especulai/internal/encoder"
	"especulai/internal/models"
)

func TestExport_BindsPairingID(t *testing.T) {
	x, y := syntheticData(100)

	result, err := New(0.2, 42, nil).Train(x, y)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	p := &encoder.Preprocessor{PairingID: "pair-123", FittedOn: "fonte_olx__negocio_venda"}

	artifact := Export(result, p, DefaultConfidenceThresholds)

	if artifact.PairingID != "pair-123" {
		t.Errorf("PairingID = %q, want pair-123", artifact.PairingID)
	}

	if artifact.Segment != "fonte_olx__negocio_venda" {
		t.Errorf("Segment = %q, want fonte_olx__negocio_venda", artifact.Segment)
	}

	if artifact.Booster == nil && artifact.Ridge == nil {
		t.Error("exported artifact carries no model")
	}

	estimate, err := artifact.Predict(x[0])
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if estimate <= 0 {
		t.Errorf("estimate = %v, want positive", estimate)
	}
}

func TestModelArtifact_ConfidenceFor(t *testing.T) {
	artifact := &ModelArtifact{
		Holdout:    Metrics{MAE: 30000},
		Confidence: DefaultConfidenceThresholds,
	}

	tests := []struct {
		estimate float64
		want     models.ConfidenceLabel
	}{
		{500000, models.ConfidenceHigh},   // 6% relative error
		{120000, models.ConfidenceMedium}, // 25%
		{50000, models.ConfidenceLow},     // 60%
		{0, models.ConfidenceLow},
	}

	for _, tt := range tests {
		if got := artifact.ConfidenceFor(tt.estimate); got != tt.want {
			t.Errorf("ConfidenceFor(%v) = %s, want %s", tt.estimate, got, tt.want)
		}
	}
}

func TestModelArtifact_PredictWithoutModel(t *testing.T) {
	artifact := &ModelArtifact{}

	if _, err := artifact.Predict([]float64{1, 2}); err == nil {
		t.Error("expected error for artifact without model")
	}
}
