package trainer

import (
	"math/rand"
)

// GBMRegressor is a gradient-boosted ensemble of regression trees fit
// on squared error. All parameters are exported so the model can be
// frozen into a JSON artifact and reloaded for serving.
type GBMRegressor struct {
	Estimators     int         `json:"estimators"`
	MaxDepth       int         `json:"max_depth"`
	LearningRate   float64     `json:"learning_rate"`
	MinSamplesLeaf int         `json:"min_samples_leaf"`
	Subsample      float64     `json:"subsample"`
	BasePrediction float64     `json:"base_prediction"`
	Trees          []*treeNode `json:"trees"`
}

// fitGBM trains a boosted ensemble. The rng drives row subsampling;
// training is deterministic for a fixed seed.
func fitGBM(cfg CandidateConfig, x [][]float64, y []float64, rng *rand.Rand) *GBMRegressor {
	model := &GBMRegressor{
		Estimators:     cfg.Estimators,
		MaxDepth:       cfg.MaxDepth,
		LearningRate:   cfg.LearningRate,
		MinSamplesLeaf: cfg.MinSamplesLeaf,
		Subsample:      cfg.Subsample,
		BasePrediction: mean(y),
		Trees:          make([]*treeNode, 0, cfg.Estimators),
	}

	n := len(y)

	current := make([]float64, n)
	for i := range current {
		current[i] = model.BasePrediction
	}

	residual := make([]float64, n)

	sampleSize := n
	if cfg.Subsample > 0 && cfg.Subsample < 1 {
		sampleSize = int(float64(n) * cfg.Subsample)
		if sampleSize < 2 {
			sampleSize = n
		}
	}

	for iter := 0; iter < cfg.Estimators; iter++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}

		idx := rng.Perm(n)[:sampleSize]

		tree := buildTree(x, residual, idx, 0, cfg.MaxDepth, cfg.MinSamplesLeaf)
		model.Trees = append(model.Trees, tree)

		for i := range current {
			current[i] += cfg.LearningRate * tree.predict(x[i])
		}
	}

	return model
}

// Predict returns the ensemble estimate for one feature vector.
func (m *GBMRegressor) Predict(x []float64) float64 {
	out := m.BasePrediction
	for _, tree := range m.Trees {
		out += m.LearningRate * tree.predict(x)
	}

	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
