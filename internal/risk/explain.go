package risk

import (
	"math"
	"sort"

	"github.com/clauselens/riskcore/internal/features"
)

// topContributions is how many features an explanation reports.
const topContributions = 5

// explainer produces the top contributing features for one prediction.
// Implementations share one output shape so callers never know which
// strategy ran.
type explainer interface {
	explain(art *artifact, vec features.Vector, row []float64) []FeatureContribution
}

// chainExplainer tries strategies in order, recovering from panics and
// falling through on empty output.
type chainExplainer []explainer

func (c chainExplainer) explain(art *artifact, vec features.Vector, row []float64) (out []FeatureContribution) {
	for _, e := range c {
		if result := tryExplain(e, art, vec, row); len(result) > 0 {
			return result
		}
	}
	return []FeatureContribution{}
}

func tryExplain(e explainer, art *artifact, vec features.Vector, row []float64) (out []FeatureContribution) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	return e.explain(art, vec, row)
}

// pathAttribution attributes the prediction to features along the decision
// paths of the predicted class's trees: each traversed split contributes
// the change in node mean it caused. This is a local, per-prediction
// attribution.
type pathAttribution struct{}

func (pathAttribution) explain(art *artifact, vec features.Vector, row []float64) []FeatureContribution {
	ens := art.Ensemble
	class := ens.Predict(row)

	contrib := make([]float64, len(art.FeatureNames))
	for _, roundTrees := range ens.Trees {
		tree := roundTrees[class]
		i := int32(0)
		for {
			node := tree.Nodes[i]
			if node.Left < 0 {
				break
			}
			next := node.Left
			if row[node.Feature] > node.Threshold {
				next = node.Right
			}
			contrib[node.Feature] += ens.Params.LearningRate * (tree.Nodes[next].Mean - node.Mean)
			i = next
		}
	}

	return rankContributions(art.FeatureNames, row, contrib, func(v float64) float64 { return math.Abs(v) })
}

// globalImportance falls back to the model's global feature-importance
// ranking when local attribution produces nothing.
type globalImportance struct{}

func (globalImportance) explain(art *artifact, vec features.Vector, row []float64) []FeatureContribution {
	imp := art.Ensemble.FeatureImportance()
	return rankContributions(art.FeatureNames, row, imp, func(v float64) float64 { return v })
}

func rankContributions(names []string, row, scores []float64, rank func(float64) float64) []FeatureContribution {
	var out []FeatureContribution
	for i, name := range names {
		if scores[i] == 0 {
			continue
		}
		out = append(out, FeatureContribution{
			Feature:      name,
			Value:        row[i],
			Contribution: scores[i],
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return rank(out[a].Contribution) > rank(out[b].Contribution)
	})
	if len(out) > topContributions {
		out = out[:topContributions]
	}
	return out
}
