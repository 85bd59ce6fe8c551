package trainer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics are the evaluation scores of one candidate on one partition.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// evaluate scores predictions against the true targets.
func evaluate(yTrue, yPred []float64) Metrics {
	n := len(yTrue)
	if n == 0 {
		return Metrics{}
	}

	var absSum, sqSum float64

	for i := range yTrue {
		diff := yPred[i] - yTrue[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}

	meanTrue := stat.Mean(yTrue, nil)

	var totSq float64

	for _, v := range yTrue {
		d := v - meanTrue
		totSq += d * d
	}

	r2 := 0.0
	if totSq > 0 {
		r2 = 1 - sqSum/totSq
	}

	return Metrics{
		MAE:  absSum / float64(n),
		RMSE: math.Sqrt(sqSum / float64(n)),
		R2:   r2,
	}
}
