package ml

import (
	"gonum.org/v1/gonum/stat"

	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

// Scaler standardizes a feature vector to zero mean and unit variance,
// per-column statistics fit once at training time. Mirrors
// sklearn.preprocessing.StandardScaler's default (population variance,
// ddof=0).
type Scaler struct {
	Mean [scoring.FeatureCount]float64
	Std  [scoring.FeatureCount]float64
}

// FitScaler computes per-feature population mean/stddev over a training
// matrix.
func FitScaler(rows [][scoring.FeatureCount]float64) Scaler {
	var s Scaler
	column := make([]float64, len(rows))
	for col := 0; col < scoring.FeatureCount; col++ {
		for i, row := range rows {
			column[i] = row[col]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		s.Mean[col] = mean
		if variance > 0 {
			s.Std[col] = stat.PopStdDev(column, nil)
		} else {
			s.Std[col] = 1
		}
	}
	return s
}

// Transform standardizes one feature vector using the fitted
// statistics.
func (s Scaler) Transform(row [scoring.FeatureCount]float64) [scoring.FeatureCount]float64 {
	var out [scoring.FeatureCount]float64
	for i := range row {
		out[i] = (row[i] - s.Mean[i]) / s.Std[i]
	}
	return out
}
