// Package risk owns the trained contract risk model: training with
// guardrails, prediction with a rule-based fallback, explainability and
// atomic artifact persistence.
package risk

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/clauselens/riskcore/internal/contract"
	"github.com/clauselens/riskcore/internal/features"
)

var (
	// ErrPersistence indicates a failure reading or writing the model
	// artifact. Surfaced to callers: silent loss of a trained model is
	// unacceptable.
	ErrPersistence = errors.New("model persistence failed")
)

// TrainStatus is the explicit outcome of a training run. Routine "not
// enough data yet" cases are statuses, not errors.
type TrainStatus string

const (
	TrainSuccess TrainStatus = "success"
	TrainSkipped TrainStatus = "skipped"
	TrainFailed  TrainStatus = "failed"
)

// MinTrainingRecords is the smallest batch train() will fit on.
const MinTrainingRecords = 10

// smallDatasetLimit is the size at or below which the holdout split
// degenerates to train==test instead of crashing on tiny batches.
const smallDatasetLimit = 20

// TrainResult reports a training run.
type TrainResult struct {
	Status            TrainStatus                `json:"status"`
	Reason            string                     `json:"reason,omitempty"`
	TrainAccuracy     float64                    `json:"train_accuracy"`
	TestAccuracy      float64                    `json:"test_accuracy"`
	FeatureCount      int                        `json:"feature_count"`
	ClassDistribution map[contract.RiskLevel]int `json:"class_distribution,omitempty"`
}

// FeatureContribution is one entry of a prediction explanation. The shape
// is identical whichever explanation strategy produced it.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Prediction is the result of classifying one contract. Label and score
// are always mutually consistent: the label is derived from the score.
type Prediction struct {
	RiskLevel   contract.RiskLevel    `json:"predicted_risk_level"`
	RiskScore   int                   `json:"risk_score"`
	TopFeatures []FeatureContribution `json:"top_contributing_features"`
	ModelUsed   string                `json:"model_used"`
}

const (
	modelUsedTrained  = "trained"
	modelUsedFallback = "fallback"
)

// artifact is the opaque persisted blob: ensemble, class vocabulary and
// the training-time column order. A fresh train() builds a new artifact
// off to the side and publishes it with a single pointer swap, so
// in-flight predictions keep the snapshot they started with.
type artifact struct {
	SchemaVersion int
	Ensemble      *Ensemble
	Classes       []contract.RiskLevel
	FeatureNames  []string
}

// Classifier maps contract records to risk levels and scores.
type Classifier struct {
	logger    *zap.Logger
	extractor *features.Extractor
	path      string
	params    EnsembleParams
	explainer explainer
	metrics   *Metrics

	model atomic.Pointer[artifact]
}

// Config holds classifier configuration.
type Config struct {
	// ModelPath is the artifact location on disk.
	ModelPath string

	// Params tunes boosting; zero value means DefaultEnsembleParams.
	Params EnsembleParams
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ModelPath == "" {
		c.ModelPath = filepath.Join("data", "models", "risk_model.gob")
	}
	if c.Params.Rounds == 0 {
		c.Params = DefaultEnsembleParams()
	}
}

// NewClassifier creates a classifier and loads an existing model artifact
// when one is present. A missing or unreadable artifact is not fatal: the
// classifier starts untrained and serves fallback predictions.
func NewClassifier(cfg Config, logger *zap.Logger) *Classifier {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Classifier{
		logger:    logger,
		extractor: features.NewExtractor(),
		path:      cfg.ModelPath,
		params:    cfg.Params,
		explainer: chainExplainer{pathAttribution{}, globalImportance{}},
		metrics:   NewMetrics(logger),
	}

	if art, err := loadArtifact(cfg.ModelPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("could not load existing risk model, starting untrained",
				zap.String("path", cfg.ModelPath), zap.Error(err))
		}
	} else {
		c.model.Store(art)
		logger.Info("loaded risk model",
			zap.String("path", cfg.ModelPath),
			zap.Int("features", len(art.FeatureNames)))
	}

	return c
}

// Train fits a new model on labeled records and atomically replaces the
// served artifact on success. Insufficient data and single-class batches
// return a skipped result rather than an error; only persistence and
// fitting failures are reported as errors.
func (c *Classifier) Train(ctx context.Context, records []contract.Record) (*TrainResult, error) {
	if len(records) < MinTrainingRecords {
		return &TrainResult{
			Status: TrainSkipped,
			Reason: fmt.Sprintf("insufficient data: need at least %d labeled contracts, got %d", MinTrainingRecords, len(records)),
		}, nil
	}

	var (
		rows   [][]float64
		labels []int
		dist   = map[contract.RiskLevel]int{}
	)
	classes := contract.Levels()
	classIndex := map[contract.RiskLevel]int{}
	for i, level := range classes {
		classIndex[level] = i
	}

	for _, rec := range records {
		level, ok := rec.Label()
		if !ok {
			continue
		}
		rows = append(rows, c.extractor.Extract(rec).Values())
		labels = append(labels, classIndex[level])
		dist[level]++
	}

	if len(rows) < MinTrainingRecords {
		return &TrainResult{
			Status: TrainSkipped,
			Reason: fmt.Sprintf("insufficient data: only %d of %d records carry a usable label", len(rows), len(records)),
		}, nil
	}
	if len(dist) < 2 {
		return &TrainResult{
			Status:            TrainSkipped,
			Reason:            "no label variance: all records share a single risk level",
			ClassDistribution: dist,
		}, nil
	}

	trainX, trainY, testX, testY := holdoutSplit(rows, labels, dist, classIndex)

	ens, err := TrainEnsemble(trainX, trainY, len(classes), c.params)
	if err != nil {
		return &TrainResult{Status: TrainFailed, Reason: err.Error()}, fmt.Errorf("fitting ensemble: %w", err)
	}

	art := &artifact{
		SchemaVersion: features.SchemaVersion,
		Ensemble:      ens,
		Classes:       classes,
		FeatureNames:  features.Names(),
	}

	if err := saveArtifact(c.path, art); err != nil {
		c.logger.Error("saving risk model failed", zap.Error(err))
		return &TrainResult{Status: TrainFailed, Reason: err.Error()}, err
	}

	c.model.Store(art)

	result := &TrainResult{
		Status:            TrainSuccess,
		TrainAccuracy:     accuracy(ens, trainX, trainY),
		TestAccuracy:      accuracy(ens, testX, testY),
		FeatureCount:      len(art.FeatureNames),
		ClassDistribution: dist,
	}
	c.logger.Info("risk model trained",
		zap.Int("records", len(rows)),
		zap.Float64("train_accuracy", result.TrainAccuracy),
		zap.Float64("test_accuracy", result.TestAccuracy))
	return result, nil
}

// holdoutSplit shuffles and splits 80/20, stratified by class when every
// class has at least two members. Datasets of 20 rows or fewer evaluate
// on the training set itself.
func holdoutSplit(rows [][]float64, labels []int, dist map[contract.RiskLevel]int, classIndex map[contract.RiskLevel]int) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if len(rows) <= smallDatasetLimit {
		return rows, labels, rows, labels
	}

	rng := rand.New(rand.NewSource(42))

	stratify := true
	for _, count := range dist {
		if count < 2 {
			stratify = false
			break
		}
	}

	assignTest := make([]bool, len(rows))
	if stratify {
		byClass := map[int][]int{}
		for i, label := range labels {
			byClass[label] = append(byClass[label], i)
		}
		// Iterate classes in fixed vocabulary order for determinism.
		for _, level := range contract.Levels() {
			idx := byClass[classIndex[level]]
			rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
			cut := len(idx) / 5
			if cut == 0 && len(idx) > 1 {
				cut = 1
			}
			for _, i := range idx[:cut] {
				assignTest[i] = true
			}
		}
	} else {
		perm := rng.Perm(len(rows))
		for _, i := range perm[:len(rows)/5] {
			assignTest[i] = true
		}
	}

	for i := range rows {
		if assignTest[i] {
			testX = append(testX, rows[i])
			testY = append(testY, labels[i])
		} else {
			trainX = append(trainX, rows[i])
			trainY = append(trainY, labels[i])
		}
	}
	return trainX, trainY, testX, testY
}

func accuracy(ens *Ensemble, x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i, row := range x {
		if ens.Predict(row) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}

// Predict classifies a single record. It never fails: an untrained model
// or any internal error degrades to the rule-based fallback.
func (c *Classifier) Predict(ctx context.Context, rec contract.Record) (pred Prediction) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("prediction panicked, serving fallback", zap.Any("panic", r))
			pred = c.fallback(rec)
		}
		c.metrics.RecordPrediction(ctx, pred.ModelUsed, string(pred.RiskLevel))
	}()

	art := c.model.Load()
	if art == nil {
		return c.fallback(rec)
	}

	vec := c.extractor.Extract(rec)
	// Reindex to the training-time column set; columns the record lacks
	// default to 0.
	row := vec.Row(art.FeatureNames)

	probs := art.Ensemble.Proba(row)
	score := 0.0
	for i, level := range art.Classes {
		score += probs[i] * contract.DangerWeight(level)
	}
	score = math.Min(100, math.Max(0, score))

	top := c.explainer.explain(art, vec, row)

	return Prediction{
		RiskLevel:   contract.LevelFromScore(score),
		RiskScore:   int(math.Round(score)),
		TopFeatures: top,
		ModelUsed:   modelUsedTrained,
	}
}

// fallbackPhrases drive the rule-based prediction used whenever the
// trained model is unavailable.
var fallbackPhrases = []string{"unlimited liability", "irrevocable", "perpetual", "without cause"}

func (c *Classifier) fallback(rec contract.Record) Prediction {
	lower := strings.ToLower(rec.RawText)
	hits := 0
	for _, phrase := range fallbackPhrases {
		hits += strings.Count(lower, phrase)
	}

	score := 25
	switch {
	case hits > 1:
		score = 85
	case hits == 1:
		score = 60
	}

	return Prediction{
		RiskLevel:   contract.LevelFromScore(float64(score)),
		RiskScore:   score,
		TopFeatures: []FeatureContribution{},
		ModelUsed:   modelUsedFallback,
	}
}

// ModelInfo reports operational state; no side effects.
type ModelInfo struct {
	Trained      bool     `json:"is_trained"`
	ModelType    string   `json:"model_type"`
	FeatureCount int      `json:"feature_count,omitempty"`
	Classes      []string `json:"classes,omitempty"`
	ModelPath    string   `json:"model_path"`
}

// GetModelInfo describes the currently served model.
func (c *Classifier) GetModelInfo() ModelInfo {
	art := c.model.Load()
	if art == nil {
		return ModelInfo{Trained: false, ModelType: "none", ModelPath: c.path}
	}
	classes := make([]string, len(art.Classes))
	for i, level := range art.Classes {
		classes[i] = string(level)
	}
	return ModelInfo{
		Trained:      true,
		ModelType:    "gradient_boosting",
		FeatureCount: len(art.FeatureNames),
		Classes:      classes,
		ModelPath:    c.path,
	}
}

// saveArtifact writes the model blob atomically: encode to a temp file in
// the target directory, fsync, then rename over the live path. Callers
// can never observe a half-written model.
func saveArtifact(path string, art *artifact) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(art); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encoding: %v", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", ErrPersistence, path, err)
	}
	return nil
}

func loadArtifact(path string) (*artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var art artifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrPersistence, path, err)
	}
	if art.Ensemble == nil || len(art.FeatureNames) == 0 {
		return nil, fmt.Errorf("%w: artifact %s is incomplete", ErrPersistence, path)
	}
	return &art, nil
}
