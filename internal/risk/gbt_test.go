package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds a three-class dataset where feature 0 alone decides the
// class and feature 1 is noise.
func separable() (x [][]float64, y []int) {
	for class := 0; class < 3; class++ {
		for i := 0; i < 8; i++ {
			x = append(x, []float64{float64(class*10) + float64(i%3), float64(i)})
			y = append(y, class)
		}
	}
	return x, y
}

func TestTrainEnsembleSeparable(t *testing.T) {
	x, y := separable()
	params := EnsembleParams{Rounds: 20, MaxDepth: 3, LearningRate: 0.3, MinLeaf: 1}

	ens, err := TrainEnsemble(x, y, 3, params)
	require.NoError(t, err)

	for i, row := range x {
		assert.Equal(t, y[i], ens.Predict(row), "row %d", i)
	}
}

func TestProbaIsADistribution(t *testing.T) {
	x, y := separable()
	ens, err := TrainEnsemble(x, y, 3, EnsembleParams{Rounds: 5, MaxDepth: 2, LearningRate: 0.1, MinLeaf: 1})
	require.NoError(t, err)

	probs := ens.Proba([]float64{11, 0})
	sum := 0.0
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFeatureImportance(t *testing.T) {
	x, y := separable()
	ens, err := TrainEnsemble(x, y, 3, EnsembleParams{Rounds: 10, MaxDepth: 3, LearningRate: 0.2, MinLeaf: 1})
	require.NoError(t, err)

	imp := ens.FeatureImportance()
	require.Len(t, imp, 2)

	sum := imp[0] + imp[1]
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, imp[0], imp[1], "the deciding feature must dominate")
}

func TestTrainingIsDeterministic(t *testing.T) {
	x, y := separable()
	params := EnsembleParams{Rounds: 8, MaxDepth: 3, LearningRate: 0.1, MinLeaf: 1}

	a, err := TrainEnsemble(x, y, 3, params)
	require.NoError(t, err)
	b, err := TrainEnsemble(x, y, 3, params)
	require.NoError(t, err)

	probe := []float64{12.5, 3}
	assert.Equal(t, a.Proba(probe), b.Proba(probe))
}

func TestTrainEnsembleEmpty(t *testing.T) {
	_, err := TrainEnsemble(nil, nil, 3, DefaultEnsembleParams())
	assert.Error(t, err)
}
