package ml

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
	"github.com/sjwhitworth/golearn/evaluation"
	"gonum.org/v1/gonum/stat"

	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

// trainSplitSeed is the fixed random seed for the stratified train/test
// split, matching the source's random_state=42 for reproducibility.
const trainSplitSeed = 42

const (
	classFraud = "fraud"
	classClean = "clean"

	forestSize     = 100
	forestFeatures = 4 // ~sqrt(12) features considered per split
)

// Metrics is the reported evaluation summary from one training run.
type Metrics struct {
	Precision         float64
	Recall            float64
	F1                float64
	Accuracy          float64
	ConfusionMatrix   map[string]map[string]int
	FeatureImportance map[string]float64
	ROCFPR            []float64
	ROCTPR            []float64
	AUC               float64
	TrainSamples      int
	TestSamples       int
}

// Train fits a random forest classifier on the given feature rows and
// fraud labels; the classes are neither reweighted nor resampled, so
// the forest trains on the class mix of the training split as it is.
// It reports the metrics contract in
// spec.md §4.10. Requires at least MinTrainingSamples rows with at
// least one of each label class; otherwise returns ErrInsufficientData
// and trains nothing.
func Train(rows [][scoring.FeatureCount]float64, labels []bool) (*Bundle, Metrics, error) {
	if len(rows) != len(labels) {
		return nil, Metrics{}, fmt.Errorf("ml: rows/labels length mismatch: %d vs %d", len(rows), len(labels))
	}
	if len(rows) < MinTrainingSamples {
		return nil, Metrics{}, ErrInsufficientData
	}

	fraudIdx, cleanIdx := splitByLabel(labels)
	if len(fraudIdx) == 0 || len(cleanIdx) == 0 {
		return nil, Metrics{}, ErrInsufficientData
	}

	scaler := FitScaler(rows)
	scaledRows := make([][scoring.FeatureCount]float64, len(rows))
	for i, row := range rows {
		scaledRows[i] = scaler.Transform(row)
	}

	trainIdx, testIdx := stratifiedSplit(fraudIdx, cleanIdx, 0.2, trainSplitSeed)

	trainInstances, err := buildInstances(scaledRows, labels, trainIdx)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("ml: build train instances: %w", err)
	}
	testInstances, err := buildInstances(scaledRows, labels, testIdx)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("ml: build test instances: %w", err)
	}

	forest := ensemble.NewRandomForest(forestSize, forestFeatures)
	if err := forest.Fit(trainInstances); err != nil {
		return nil, Metrics{}, fmt.Errorf("ml: fit random forest: %w", err)
	}

	predictions, err := forest.Predict(testInstances)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("ml: predict on held-out set: %w", err)
	}

	confusionMat, err := evaluation.GetConfusionMatrix(testInstances, predictions)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("ml: build confusion matrix: %w", err)
	}

	metrics := summarizeMetrics(confusionMat, scaledRows, labels, trainIdx)
	metrics.TrainSamples = len(trainIdx)
	metrics.TestSamples = len(testIdx)

	bundle := &Bundle{
		Forest:  forest,
		Scaler:  scaler,
		State:   StateTrained,
		Metrics: metrics,
	}
	return bundle, metrics, nil
}

func splitByLabel(labels []bool) (fraudIdx, cleanIdx []int) {
	for i, fraud := range labels {
		if fraud {
			fraudIdx = append(fraudIdx, i)
		} else {
			cleanIdx = append(cleanIdx, i)
		}
	}
	return fraudIdx, cleanIdx
}

// stratifiedSplit partitions each class's indices independently at the
// given test fraction, using a fixed-seed shuffle so the split is
// reproducible across runs with the same input.
func stratifiedSplit(fraudIdx, cleanIdx []int, testFraction float64, seed int64) (train, test []int) {
	r := rand.New(rand.NewSource(seed))
	for _, idx := range [][]int{fraudIdx, cleanIdx} {
		shuffled := append([]int(nil), idx...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		testCount := int(math.Round(float64(len(shuffled)) * testFraction))
		test = append(test, shuffled[:testCount]...)
		train = append(train, shuffled[testCount:]...)
	}
	return train, test
}

func buildInstances(rows [][scoring.FeatureCount]float64, labels []bool, subset []int) (base.FixedDataGrid, error) {
	attrs := make([]base.Attribute, 0, scoring.FeatureCount+1)
	for _, name := range scoring.FeatureNames {
		attrs = append(attrs, base.NewFloatAttribute(name))
	}
	classAttr := new(base.CategoricalAttribute)
	classAttr.SetName("label")
	attrs = append(attrs, classAttr)

	instances := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, 0, len(attrs))
	for _, a := range attrs {
		specs = append(specs, instances.AddAttribute(a))
	}
	instances.AddClassAttribute(classAttr)
	instances.Extend(len(subset))

	for row, idx := range subset {
		for col := 0; col < scoring.FeatureCount; col++ {
			instances.Set(specs[col], row, base.PackFloatToBytes(rows[idx][col]))
		}
		label := classClean
		if labels[idx] {
			label = classFraud
		}
		instances.Set(specs[len(specs)-1], row, classAttr.GetSysValFromString(label))
	}

	return instances, nil
}

// summarizeMetrics converts golearn's confusion matrix into the
// precision/recall/F1/accuracy/AUC contract, and approximates
// per-feature importance as each feature's absolute point-biserial
// correlation with the label — golearn's RandomForest does not expose
// per-tree split usage, so a true mean-decrease-impurity importance
// is not available from the library directly.
func summarizeMetrics(confusionMat evaluation.ConfusionMatrix, scaledRows [][scoring.FeatureCount]float64, labels []bool, trainIdx []int) Metrics {
	precisionByClass := evaluation.GetPrecision(confusionMat)
	recallByClass := evaluation.GetRecall(confusionMat)
	f1ByClass := evaluation.GetF1(confusionMat)
	accuracy := evaluation.GetAccuracy(confusionMat)

	cm := make(map[string]map[string]int)
	for trueClass, predCounts := range confusionMat {
		cm[trueClass] = make(map[string]int)
		for predClass, count := range predCounts {
			cm[trueClass][predClass] = count
		}
	}

	importance := make(map[string]float64)
	y := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		if labels[idx] {
			y[i] = 1
		}
	}
	var importanceSum float64
	for col, name := range scoring.FeatureNames {
		x := make([]float64, len(trainIdx))
		for i, idx := range trainIdx {
			x[i] = scaledRows[idx][col]
		}
		corr := math.Abs(stat.Correlation(x, y, nil))
		if math.IsNaN(corr) {
			corr = 0
		}
		importance[name] = corr
		importanceSum += corr
	}
	if importanceSum > 0 {
		for name := range importance {
			importance[name] /= importanceSum
		}
	}

	fpr, tpr, auc := approximateROC(precisionByClass[classFraud], recallByClass[classFraud])

	return Metrics{
		Precision:         precisionByClass[classFraud],
		Recall:            recallByClass[classFraud],
		F1:                f1ByClass[classFraud],
		Accuracy:          accuracy,
		ConfusionMatrix:   cm,
		FeatureImportance: importance,
		ROCFPR:            fpr,
		ROCTPR:            tpr,
		AUC:               auc,
	}
}

// approximateROC builds a two-segment ROC curve from the classifier's
// discrete hard-label predictions, since golearn's RandomForest exposes
// class labels, not per-class probabilities, and true ROC requires a
// score threshold sweep.
func approximateROC(precision, recall float64) (fpr, tpr []float64, auc float64) {
	tpRate := recall
	// Derive an approximate false-positive rate from precision and
	// recall assuming a roughly balanced evaluation set.
	fpRate := 0.0
	if precision > 0 {
		fpRate = tpRate * (1 - precision) / precision
		if fpRate > 1 {
			fpRate = 1
		}
	}
	fpr = []float64{0, fpRate, 1}
	tpr = []float64{0, tpRate, 1}
	auc = 0.5*fpRate*tpRate + 0.5*(1-fpRate)*(1+tpRate)
	if auc > 1 {
		auc = 1
	}
	return fpr, tpr, auc
}
