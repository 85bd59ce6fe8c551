package trainer

import "sort"

// treeNode is one node of a regression tree. Leaves carry the mean
// target of their partition; internal nodes split on a feature
// threshold. The tree is serialized inside the model artifact.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// predict walks the tree for one feature vector.
func (n *treeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}

	return n.Value
}

// buildTree fits a regression tree on the rows named by idx, greedily
// choosing the split with the largest squared-error reduction.
func buildTree(x [][]float64, y []float64, idx []int, depth, maxDepth, minLeaf int) *treeNode {
	if depth >= maxDepth || len(idx) < 2*minLeaf {
		return &treeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestSplit(x, y, idx, minLeaf)
	if !ok {
		return &treeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	var left, right []int

	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	if len(left) < minLeaf || len(right) < minLeaf {
		return &treeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(x, y, left, depth+1, maxDepth, minLeaf),
		Right:     buildTree(x, y, right, depth+1, maxDepth, minLeaf),
	}
}

// bestSplit scans every feature with a sorted sweep, using running
// sums to evaluate each candidate threshold in constant time.
func bestSplit(x [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	if n < 2 {
		return 0, 0, false
	}

	var totalSum, totalSq float64

	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}

	baseSSE := totalSq - totalSum*totalSum/float64(n)

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	order := make([]int, n)

	for feature := 0; feature < len(x[idx[0]]); feature++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return x[order[a]][feature] < x[order[b]][feature]
		})

		var leftSum, leftSq float64

		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// No split between identical feature values.
			if x[order[pos]][feature] == x[order[pos+1]][feature] {
				continue
			}

			leftN := pos + 1
			rightN := n - leftN

			if leftN < minLeaf || rightN < minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq

			sse := (leftSq - leftSum*leftSum/float64(leftN)) +
				(rightSq - rightSum*rightSum/float64(rightN))

			if gain := baseSSE - sse; gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (x[order[pos]][feature] + x[order[pos+1]][feature]) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}

	return bestFeature, bestThreshold, true
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}

	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}

	return sum / float64(len(idx))
}
