package risk

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Gradient-boosted regression trees with softmax multi-class output.
// One tree per class per boosting round, fit to the class's probability
// residuals, with Newton-step leaf weights. Split search is exhaustive and
// deterministic: features in index order, thresholds in value order, a
// split is only taken on a strictly better gain.

var errNoTrainingData = errors.New("no training data")

// EnsembleParams controls boosting.
type EnsembleParams struct {
	Rounds       int
	MaxDepth     int
	LearningRate float64
	MinLeaf      int
}

// DefaultEnsembleParams mirrors the calibration the risk model has always
// used: 100 rounds of depth-6 trees at a 0.1 learning rate.
func DefaultEnsembleParams() EnsembleParams {
	return EnsembleParams{Rounds: 100, MaxDepth: 6, LearningRate: 0.1, MinLeaf: 1}
}

// TreeNode is one node of a regression tree. Leaf nodes have Left == -1.
// All fields are exported for gob serialization of the model artifact.
type TreeNode struct {
	Feature   int32
	Threshold float64
	Left      int32
	Right     int32
	// Weight is the Newton leaf weight (meaningful on leaves only).
	Weight float64
	// Mean is the mean residual of the samples routed through this node,
	// kept on every node for path-based attribution.
	Mean float64
	// Gain is the squared-error reduction achieved by this split.
	Gain float64
}

// Tree is a single regression tree stored as a flat node array.
type Tree struct {
	Nodes []TreeNode
}

func (t *Tree) predict(row []float64) float64 {
	i := int32(0)
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Weight
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Ensemble is a trained boosted-tree multi-class classifier.
type Ensemble struct {
	NumClasses  int
	NumFeatures int
	Params      EnsembleParams
	// Base holds the prior log-probabilities per class.
	Base []float64
	// Trees is indexed [round][class].
	Trees [][]Tree
}

// TrainEnsemble fits a boosted ensemble on rows X with class indexes y.
func TrainEnsemble(x [][]float64, y []int, numClasses int, params EnsembleParams) (*Ensemble, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, errNoTrainingData
	}
	numFeatures := len(x[0])

	base := make([]float64, numClasses)
	for _, label := range y {
		base[label]++
	}
	for k := range base {
		// Laplace-smoothed priors keep absent classes finite.
		base[k] = math.Log((base[k] + 1) / float64(n+numClasses))
	}

	// Raw scores per sample per class, updated each round.
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, numClasses)
		copy(scores[i], base)
	}

	ens := &Ensemble{
		NumClasses:  numClasses,
		NumFeatures: numFeatures,
		Params:      params,
		Base:        base,
		Trees:       make([][]Tree, 0, params.Rounds),
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	probs := make([]float64, numClasses)

	for round := 0; round < params.Rounds; round++ {
		roundTrees := make([]Tree, numClasses)
		for k := 0; k < numClasses; k++ {
			for i := 0; i < n; i++ {
				softmaxInto(probs, scores[i])
				p := probs[k]
				target := 0.0
				if y[i] == k {
					target = 1.0
				}
				grad[i] = target - p
				hess[i] = p * (1 - p)
			}
			tree := fitTree(x, grad, hess, numClasses, params)
			roundTrees[k] = tree
			for i := 0; i < n; i++ {
				scores[i][k] += params.LearningRate * tree.predict(x[i])
			}
		}
		ens.Trees = append(ens.Trees, roundTrees)
	}

	return ens, nil
}

// Proba returns the per-class probabilities for one row.
func (e *Ensemble) Proba(row []float64) []float64 {
	scores := make([]float64, e.NumClasses)
	copy(scores, e.Base)
	for _, roundTrees := range e.Trees {
		for k := range roundTrees {
			scores[k] += e.Params.LearningRate * roundTrees[k].predict(row)
		}
	}
	out := make([]float64, e.NumClasses)
	softmaxInto(out, scores)
	return out
}

// Predict returns the argmax class index for one row.
func (e *Ensemble) Predict(row []float64) int {
	return floats.MaxIdx(e.Proba(row))
}

// FeatureImportance returns per-feature importance as normalized split
// gains summed over every tree. Sums to 1 when any split exists.
func (e *Ensemble) FeatureImportance() []float64 {
	imp := make([]float64, e.NumFeatures)
	for _, roundTrees := range e.Trees {
		for _, tree := range roundTrees {
			for _, node := range tree.Nodes {
				if node.Left >= 0 {
					imp[node.Feature] += node.Gain
				}
			}
		}
	}
	if total := floats.Sum(imp); total > 0 {
		floats.Scale(1/total, imp)
	}
	return imp
}

func softmaxInto(dst, scores []float64) {
	maxScore := floats.Max(scores)
	sum := 0.0
	for i, s := range scores {
		dst[i] = math.Exp(s - maxScore)
		sum += dst[i]
	}
	for i := range dst {
		dst[i] /= sum
	}
}

// fitTree grows a regression tree on gradients with hessian-weighted
// Newton leaf values.
func fitTree(x [][]float64, grad, hess []float64, numClasses int, params EnsembleParams) Tree {
	indexes := make([]int, len(x))
	for i := range indexes {
		indexes[i] = i
	}
	t := Tree{}
	build(&t, x, grad, hess, indexes, 0, numClasses, params)
	return t
}

// build appends the subtree for the given sample subset and returns its
// root index.
func build(t *Tree, x [][]float64, grad, hess []float64, indexes []int, depth, numClasses int, params EnsembleParams) int32 {
	node := TreeNode{Left: -1, Right: -1, Mean: meanAt(grad, indexes)}
	nodeIdx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, node)

	if depth >= params.MaxDepth || len(indexes) < 2*params.MinLeaf || len(indexes) < 2 {
		t.Nodes[nodeIdx].Weight = newtonWeight(grad, hess, indexes, numClasses)
		return nodeIdx
	}

	feature, threshold, gain, ok := bestSplit(x, grad, indexes, params.MinLeaf)
	if !ok {
		t.Nodes[nodeIdx].Weight = newtonWeight(grad, hess, indexes, numClasses)
		return nodeIdx
	}

	var left, right []int
	for _, i := range indexes {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	t.Nodes[nodeIdx].Feature = int32(feature)
	t.Nodes[nodeIdx].Threshold = threshold
	t.Nodes[nodeIdx].Gain = gain
	t.Nodes[nodeIdx].Left = build(t, x, grad, hess, left, depth+1, numClasses, params)
	t.Nodes[nodeIdx].Right = build(t, x, grad, hess, right, depth+1, numClasses, params)
	return nodeIdx
}

// bestSplit scans every feature for the threshold with the largest
// squared-error reduction over the subset.
func bestSplit(x [][]float64, grad []float64, indexes []int, minLeaf int) (feature int, threshold, gain float64, ok bool) {
	n := len(indexes)
	totalSum := 0.0
	for _, i := range indexes {
		totalSum += grad[i]
	}
	parentScore := totalSum * totalSum / float64(n)

	numFeatures := len(x[indexes[0]])
	pairs := make([]splitPair, n)

	for f := 0; f < numFeatures; f++ {
		for j, i := range indexes {
			pairs[j] = splitPair{x[i][f], grad[i]}
		}
		sortPairs(pairs)

		leftSum, leftCount := 0.0, 0
		for j := 0; j < n-1; j++ {
			leftSum += pairs[j].grad
			leftCount++
			if pairs[j].value == pairs[j+1].value {
				continue
			}
			if leftCount < minLeaf || n-leftCount < minLeaf {
				continue
			}
			rightSum := totalSum - leftSum
			score := leftSum*leftSum/float64(leftCount) + rightSum*rightSum/float64(n-leftCount)
			if improvement := score - parentScore; improvement > gain {
				gain = improvement
				feature = f
				threshold = (pairs[j].value + pairs[j+1].value) / 2
				ok = true
			}
		}
	}
	return feature, threshold, gain, ok
}

type splitPair struct{ value, grad float64 }

func sortPairs(pairs []splitPair) {
	// Insertion sort keeps equal-value runs in stable order, which keeps
	// split selection deterministic.
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].value < pairs[j-1].value; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}

func meanAt(values []float64, indexes []int) float64 {
	if len(indexes) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indexes {
		sum += values[i]
	}
	return sum / float64(len(indexes))
}

// newtonWeight computes the multi-class Newton leaf weight
// ((K-1)/K) * sum(g) / sum(h).
func newtonWeight(grad, hess []float64, indexes []int, numClasses int) float64 {
	gradSum, hessSum := 0.0, 0.0
	for _, i := range indexes {
		gradSum += grad[i]
		hessSum += hess[i]
	}
	if hessSum < 1e-10 {
		return 0
	}
	k := float64(numClasses)
	return (k - 1) / k * gradSum / hessSum
}
