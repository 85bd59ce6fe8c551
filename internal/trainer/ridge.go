package trainer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RidgeRegressor is a linear baseline fit with L2 regularization. The
// regularization keeps the normal equations solvable even when the
// one-hot blocks are collinear with the intercept.
type RidgeRegressor struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
	Lambda    float64   `json:"lambda"`
}

// fitRidge solves (AᵀA + λI)w = Aᵀy for the design matrix A with a
// leading intercept column.
func fitRidge(x [][]float64, y []float64, lambda float64) (*RidgeRegressor, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("ridge: empty matrix")
	}

	p := len(x[0]) + 1

	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	target := mat.NewVecDense(n, y)

	var gram mat.Dense

	gram.Mul(design.T(), design)

	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}

	var rhs mat.VecDense

	rhs.MulVec(design.T(), target)

	var solution mat.VecDense
	if err := solution.SolveVec(&gram, &rhs); err != nil {
		return nil, fmt.Errorf("ridge: solve normal equations: %w", err)
	}

	weights := make([]float64, p-1)
	for j := range weights {
		weights[j] = solution.AtVec(j + 1)
	}

	return &RidgeRegressor{
		Intercept: solution.AtVec(0),
		Weights:   weights,
		Lambda:    lambda,
	}, nil
}

// Predict returns the linear estimate for one feature vector.
func (m *RidgeRegressor) Predict(x []float64) float64 {
	out := m.Intercept
	for j, w := range m.Weights {
		out += w * x[j]
	}

	return out
}
