package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

func syntheticRows(n int) ([][scoring.FeatureCount]float64, []bool) {
	rows := make([][scoring.FeatureCount]float64, n)
	labels := make([]bool, n)
	for i := 0; i < n; i++ {
		var row [scoring.FeatureCount]float64
		fraud := i%3 == 0
		base := 10.0
		if fraud {
			base = 80.0
		}
		for c := range row {
			row[c] = base + float64(c)
		}
		rows[i] = row
		labels[i] = fraud
	}
	return rows, labels
}

func TestTrainRejectsBelowMinimum(t *testing.T) {
	rows, labels := syntheticRows(10)
	_, _, err := Train(rows, labels)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTrainRejectsSingleClass(t *testing.T) {
	rows, labels := syntheticRows(60)
	for i := range labels {
		labels[i] = false
	}
	_, _, err := Train(rows, labels)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestTrainProducesTrainedBundle(t *testing.T) {
	rows, labels := syntheticRows(100)
	bundle, metrics, err := Train(rows, labels)
	require.NoError(t, err)
	require.NotNil(t, bundle)
	assert.Equal(t, StateTrained, bundle.State)
	assert.Equal(t, 80, metrics.TrainSamples)
	assert.Equal(t, 20, metrics.TestSamples)
	assert.Len(t, metrics.FeatureImportance, scoring.FeatureCount)
}

func TestStratifiedSplitIsDeterministic(t *testing.T) {
	fraudIdx := []int{0, 1, 2, 3, 4}
	cleanIdx := []int{5, 6, 7, 8, 9, 10}
	trainA, testA := stratifiedSplit(fraudIdx, cleanIdx, 0.2, trainSplitSeed)
	trainB, testB := stratifiedSplit(fraudIdx, cleanIdx, 0.2, trainSplitSeed)
	assert.Equal(t, trainA, trainB)
	assert.Equal(t, testA, testB)
}

func TestPredictWithoutModelReturnsUnavailable(t *testing.T) {
	store := NewStore()
	_, ok := Predict(store, [scoring.FeatureCount]float64{})
	assert.False(t, ok)
}

func TestPredictAfterTrainingReturnsScore(t *testing.T) {
	rows, labels := syntheticRows(100)
	bundle, _, err := Train(rows, labels)
	require.NoError(t, err)

	store := NewStore()
	store.Swap(bundle)

	var fraudLike [scoring.FeatureCount]float64
	for c := range fraudLike {
		fraudLike[c] = 80.0 + float64(c)
	}
	score, ok := Predict(store, fraudLike)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}
