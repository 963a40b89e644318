package ml

import (
	"math"

	"github.com/sjwhitworth/golearn/base"

	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

// Predict scores one feature vector against the active bundle, returning
// 100 when the forest's predicted class is fraud and 0 otherwise, plus
// true. It reports the hard class label only, not a fraud probability
// between the two. If no model is active
// it returns (0, false) — ModelUnavailable per spec.md §7, not an error.
func Predict(store *Store, features [scoring.FeatureCount]float64) (float64, bool) {
	bundle := store.Get()
	if bundle == nil {
		return 0, false
	}

	scaled := bundle.Scaler.Transform(features)
	instances, err := singleRowInstances(scaled)
	if err != nil {
		return 0, false
	}

	predictions, err := bundle.Forest.Predict(instances)
	if err != nil {
		return 0, false
	}

	label := predictions.RowString(0)
	score := 0.0
	if label == classFraud {
		score = 100
	}
	return math.Round(score*10) / 10, true
}

// singleRowInstances wraps one feature vector as a one-row Instances
// value, the shape golearn's Predict expects. The class attribute value
// is unused by Predict and set to the clean placeholder.
func singleRowInstances(row [scoring.FeatureCount]float64) (base.FixedDataGrid, error) {
	return buildInstances([][scoring.FeatureCount]float64{row}, []bool{false}, []int{0})
}
