package models

import "time"

// MetricsRecord is one evaluation result for one trained candidate on
// one segment. Records are appended to a run-spanning log and historic
// entries are never recomputed.
type MetricsRecord struct {
	Segment   string
	Model     string
	MAE       float64
	RMSE      float64
	R2        float64
	RowCount  int
	Timestamp time.Time
}

// ConfidenceLabel is the categorical confidence of a price estimate.
type ConfidenceLabel string

// Confidence labels, ordered from most to least reliable.
const (
	ConfidenceHigh   ConfidenceLabel = "alta"
	ConfidenceMedium ConfidenceLabel = "media"
	ConfidenceLow    ConfidenceLabel = "baixa"
)

// PredictionRequest is a single listing query submitted to the
// inference boundary. It is ephemeral and request-scoped.
type PredictionRequest struct {
	Area      float64 `json:"area"`
	Rooms     int     `json:"quartos"`
	Bathrooms int     `json:"banheiros"`
	Type      string  `json:"tipo"`
	Bairro    string  `json:"bairro"`
	Cidade    string  `json:"cidade"`
}

// PredictionResponse carries the point estimate and its confidence.
type PredictionResponse struct {
	EstimatedPrice float64         `json:"preco_estimado"`
	Confidence     ConfidenceLabel `json:"confianca"`
}
