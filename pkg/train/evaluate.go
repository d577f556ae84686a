// pkg/train/evaluate.go

// Package train runs off-the-shelf classifiers over the model-ready table
// to sanity-check its predictive signal. The classifiers are external
// capabilities invoked as black boxes; nothing here implements a training
// algorithm.
package train

import (
	"fmt"
	"math"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
	"github.com/sjwhitworth/golearn/evaluation"
	"github.com/sjwhitworth/golearn/knn"
	"go.uber.org/zap"

	"github.com/go-gota/gota/series"

	"github.com/rkeller-lab/deprisk/pkg/fetch"
	"github.com/rkeller-lab/deprisk/pkg/model"
	"github.com/rkeller-lab/deprisk/pkg/pipeline"
)

// ScreenThreshold is the composite-score cutoff for a positive depression
// screen.
const ScreenThreshold = 10

// LabelColumn is the class column appended to the evaluation table.
const LabelColumn = "Depression screen"

// Result holds one classifier's held-out performance.
type Result struct {
	Model    string
	Accuracy float64
	Summary  string
}

// Evaluator fits reference classifiers on a train split and scores them on
// the held-out remainder.
type Evaluator struct {
	splitRatio float64
	logger     *zap.Logger
}

// NewEvaluator creates an evaluator with a 75/25 train/test split.
func NewEvaluator(logger *zap.Logger) *Evaluator {
	return &Evaluator{
		splitRatio: 0.75,
		logger:     logger,
	}
}

// PrepareLabeled derives the screening label from the composite score and
// persists a labeled feature table with the class column last. Only the
// recoded/cast column set is kept as features: those columns are guaranteed
// free of missing markers, and the composite score itself is excluded
// because the label is a function of it.
func (e *Evaluator) PrepareLabeled(modelReadyPath, labeledPath string) error {
	df, err := fetch.LoadCSV(modelReadyPath, model.RespondentKey)
	if err != nil {
		return err
	}

	scores := df.Col(pipeline.TotalScoreColumn).Float()
	labels := make([]string, df.Nrow())
	for i, s := range scores {
		if math.IsNaN(s) {
			return fmt.Errorf("row %d: composite score is missing in model-ready table", i)
		}
		if s >= ScreenThreshold {
			labels[i] = "positive"
		} else {
			labels[i] = "negative"
		}
	}

	features := make([]string, 0, len(pipeline.FillZeroColumns))
	names := make(map[string]struct{})
	for _, col := range df.Names() {
		names[col] = struct{}{}
	}
	for _, col := range pipeline.FillZeroColumns {
		if _, ok := names[col]; ok {
			features = append(features, col)
		}
	}
	if len(features) == 0 {
		return fmt.Errorf("model-ready table at %s has no recoded feature columns", modelReadyPath)
	}

	df = df.Select(features)
	if df.Err != nil {
		return fmt.Errorf("failed to select feature columns: %w", df.Err)
	}

	df = df.Mutate(series.New(labels, series.String, LabelColumn))
	if df.Err != nil {
		return fmt.Errorf("failed to append label column: %w", df.Err)
	}

	return fetch.WriteCSV(df, labeledPath)
}

// Evaluate fits a KNN and a random forest on the labeled table and returns
// their held-out accuracy.
func (e *Evaluator) Evaluate(labeledPath string) ([]Result, error) {
	data, err := base.ParseCSVToInstances(labeledPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load instances: %w", err)
	}

	trainData, testData := base.InstancesTrainTestSplit(data, e.splitRatio)

	nFeatures := len(base.NonClassAttributes(data))
	forestFeatures := int(math.Sqrt(float64(nFeatures)))
	if forestFeatures < 1 {
		forestFeatures = 1
	}

	classifiers := []struct {
		name string
		cls  base.Classifier
	}{
		{"knn", knn.NewKnnClassifier("euclidean", "linear", 3)},
		{"random_forest", ensemble.NewRandomForest(50, forestFeatures)},
	}

	results := make([]Result, 0, len(classifiers))
	for _, c := range classifiers {
		if err := c.cls.Fit(trainData); err != nil {
			return nil, fmt.Errorf("%s: fit failed: %w", c.name, err)
		}

		predictions, err := c.cls.Predict(testData)
		if err != nil {
			return nil, fmt.Errorf("%s: predict failed: %w", c.name, err)
		}

		cm, err := evaluation.GetConfusionMatrix(testData, predictions)
		if err != nil {
			return nil, fmt.Errorf("%s: confusion matrix failed: %w", c.name, err)
		}

		result := Result{
			Model:    c.name,
			Accuracy: evaluation.GetAccuracy(cm),
			Summary:  evaluation.GetSummary(cm),
		}
		results = append(results, result)

		e.logger.Info("Classifier evaluated",
			zap.String("model", result.Model),
			zap.Float64("accuracy", result.Accuracy))
	}

	return results, nil
}
