// Package trainer fits candidate regressors on an encoded dataset,
// scores them on a held-out partition, and selects the definitive
// model.
package trainer

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// Training errors.
var (
	ErrTooFewRows   = errors.New("too few rows to train")
	ErrNoCandidates = errors.New("no candidate configurations")
)

// MinTrainingRows is the smallest dataset the trainer accepts. Below
// this a holdout split is meaningless.
const MinTrainingRows = 10

// Candidate kinds.
const (
	KindGBM   = "gbm"
	KindRidge = "ridge"
)

// CandidateConfig describes one regressor configuration to try.
type CandidateConfig struct {
	Name           string  `yaml:"name"`
	Kind           string  `yaml:"kind"`
	Estimators     int     `yaml:"estimators"`
	MaxDepth       int     `yaml:"max_depth"`
	LearningRate   float64 `yaml:"learning_rate"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf"`
	Subsample      float64 `yaml:"subsample"`
}

// DefaultCandidates returns the standard candidate grid: three boosted
// ensembles of increasing capacity plus a ridge baseline.
func DefaultCandidates() []CandidateConfig {
	return []CandidateConfig{
		{Name: "gbm_raso", Kind: KindGBM, Estimators: 100, MaxDepth: 3, LearningRate: 0.1, MinSamplesLeaf: 2, Subsample: 0.9},
		{Name: "gbm_medio", Kind: KindGBM, Estimators: 200, MaxDepth: 5, LearningRate: 0.1, MinSamplesLeaf: 2, Subsample: 0.9},
		{Name: "gbm_profundo", Kind: KindGBM, Estimators: 300, MaxDepth: 6, LearningRate: 0.05, MinSamplesLeaf: 2, Subsample: 0.8},
		{Name: "regressao_ridge", Kind: KindRidge},
	}
}

// predictor is the common surface of the trained model families.
type predictor interface {
	Predict(x []float64) float64
}

// Candidate is one trained and evaluated configuration.
type Candidate struct {
	Config       CandidateConfig
	TrainMetrics Metrics
	TestMetrics  Metrics
	model        predictor
	err          error
}

// Predict scores one feature vector with the trained candidate.
func (c *Candidate) Predict(x []float64) float64 {
	return c.model.Predict(x)
}

// Result is the outcome of one training run on one segment.
type Result struct {
	Candidates []Candidate
	Best       int
	TrainRows  int
	TestRows   int
}

// Winner returns the selected candidate.
func (r *Result) Winner() *Candidate {
	return &r.Candidates[r.Best]
}

// Trainer draws a single seeded holdout split per run and fits every
// candidate concurrently against its own copy of the feature matrix.
type Trainer struct {
	holdoutRatio float64
	seed         int64
	candidates   []CandidateConfig
}

// New creates a trainer. A non-positive ratio defaults to 0.2; an
// empty candidate list uses DefaultCandidates.
func New(holdoutRatio float64, seed int64, candidates []CandidateConfig) *Trainer {
	if holdoutRatio <= 0 || holdoutRatio >= 1 {
		holdoutRatio = 0.2
	}

	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}

	return &Trainer{holdoutRatio: holdoutRatio, seed: seed, candidates: candidates}
}

// Train fits all candidates and selects the winner by lowest held-out
// MAE, breaking ties by lowest RMSE, then by the simplest model.
func (t *Trainer) Train(x [][]float64, y []float64) (*Result, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("matrix and target length mismatch: %d vs %d", len(x), len(y))
	}

	if len(x) < MinTrainingRows {
		return nil, fmt.Errorf("%w: %d rows, need at least %d", ErrTooFewRows, len(x), MinTrainingRows)
	}

	if len(t.candidates) == 0 {
		return nil, ErrNoCandidates
	}

	trainIdx, testIdx := t.split(len(x))

	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	result := &Result{
		Candidates: make([]Candidate, len(t.candidates)),
		TrainRows:  len(trainIdx),
		TestRows:   len(testIdx),
	}

	var wg sync.WaitGroup

	for i, cfg := range t.candidates {
		wg.Add(1)

		go func(slot int, cfg CandidateConfig) {
			defer wg.Done()

			// Each candidate trains on its own copy so no state is
			// shared between concurrent fits.
			result.Candidates[slot] = t.fitOne(cfg, int64(slot), copyMatrix(xTrain), append([]float64(nil), yTrain...), xTest, yTest)
		}(i, cfg)
	}

	wg.Wait()

	for i := range result.Candidates {
		if result.Candidates[i].err != nil {
			return nil, fmt.Errorf("candidate %s: %w", result.Candidates[i].Config.Name, result.Candidates[i].err)
		}
	}

	result.Best = selectBest(result.Candidates)

	return result, nil
}

func (t *Trainer) fitOne(cfg CandidateConfig, slot int64, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) Candidate {
	c := Candidate{Config: cfg}

	switch cfg.Kind {
	case KindGBM:
		rng := rand.New(rand.NewSource(t.seed + slot))
		c.model = fitGBM(cfg, xTrain, yTrain, rng)
	case KindRidge:
		model, err := fitRidge(xTrain, yTrain, 1e-3)
		if err != nil {
			c.err = err

			return c
		}

		c.model = model
	default:
		c.err = fmt.Errorf("unknown candidate kind %q", cfg.Kind)

		return c
	}

	c.TrainMetrics = evaluate(yTrain, predictAll(c.model, xTrain))
	c.TestMetrics = evaluate(yTest, predictAll(c.model, xTest))

	return c
}

// split draws the run's single holdout partition from a seeded
// shuffle. The same seed and row count always produce the same split.
func (t *Trainer) split(n int) (trainIdx, testIdx []int) {
	rng := rand.New(rand.NewSource(t.seed))
	perm := rng.Perm(n)

	testN := int(float64(n) * t.holdoutRatio)
	if testN < 1 {
		testN = 1
	}

	return perm[testN:], perm[:testN]
}

// selectBest implements the selection policy: lowest held-out MAE,
// ties broken by lowest RMSE, then fewest estimators, then shallowest
// depth.
func selectBest(candidates []Candidate) int {
	best := 0

	for i := 1; i < len(candidates); i++ {
		if better(&candidates[i], &candidates[best]) {
			best = i
		}
	}

	return best
}

func better(a, b *Candidate) bool {
	if a.TestMetrics.MAE != b.TestMetrics.MAE {
		return a.TestMetrics.MAE < b.TestMetrics.MAE
	}

	if a.TestMetrics.RMSE != b.TestMetrics.RMSE {
		return a.TestMetrics.RMSE < b.TestMetrics.RMSE
	}

	if a.Config.Estimators != b.Config.Estimators {
		return a.Config.Estimators < b.Config.Estimators
	}

	return a.Config.MaxDepth < b.Config.MaxDepth
}

func predictAll(m predictor, x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = m.Predict(row)
	}

	return out
}

func subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))

	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}

	return xs, ys
}

func copyMatrix(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = append([]float64(nil), row...)
	}

	return out
}
