// Package scoring combines the seven indicator scores into a single
// rule-based risk score and risk level, and projects a transaction plus
// its indicators into the fixed feature vector the supervised scorer
// consumes.
package scoring

import (
	"math"

	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// Weights for the rule aggregator's weighted sum, fixed per the
// detection design — not configuration-driven, unlike the risk
// thresholds below.
const (
	weightVelocity    = 0.25
	weightGeographic  = 0.25
	weightAmount      = 0.15
	weightCardTesting = 0.20
	weightCollusion   = 0.05
	weightATO         = 0.05
	weightFraudRing   = 0.05
)

// strongIndicatorThreshold is the per-indicator bar an indicator must
// clear to count toward the "strong indicator count" boost.
const strongIndicatorThreshold = 20

// Config holds the risk-level thresholds the aggregator must accept as
// configuration rather than bake in.
type Config struct {
	LowRiskThreshold  float64
	HighRiskThreshold float64
}

// DefaultConfig returns the thresholds named in spec.md §6.
func DefaultConfig() Config {
	return Config{LowRiskThreshold: 30, HighRiskThreshold: 60}
}

// AggregateResult is the rule aggregator's output: the combined score
// and the risk level it maps to under the given config.
type AggregateResult struct {
	Score     int
	RiskLevel string
}

// Aggregate computes the weighted rule score with max-indicator and
// strong-indicator-count floors, clamps to [0, 100], and classifies the
// result into a risk level using cfg's thresholds.
func Aggregate(scores models.IndicatorScores, cfg Config) AggregateResult {
	weighted := scores.Velocity*weightVelocity +
		scores.Geographic*weightGeographic +
		scores.Amount*weightAmount +
		scores.CardTesting*weightCardTesting +
		scores.Collusion*weightCollusion +
		scores.ATO*weightATO +
		scores.FraudRing*weightFraudRing

	result := math.Round(weighted)

	maxIndicator := scores.Max()
	switch {
	case maxIndicator >= 90:
		result = math.Max(result, 80)
	case maxIndicator >= 70:
		result = math.Max(result, 65)
	}

	strong := scores.StrongCount(strongIndicatorThreshold)
	switch {
	case strong >= 3:
		result = math.Max(result, 70)
	case strong >= 2:
		result = math.Max(result, 55)
	}

	if result > 100 {
		result = 100
	}
	if result < 0 {
		result = 0
	}

	score := int(result)
	return AggregateResult{Score: score, RiskLevel: RiskLevelFor(float64(score), cfg)}
}

// RiskLevelFor classifies a score into a risk level using cfg's
// thresholds. Shared by the rule aggregator and the hybrid combiner,
// which both re-derive the level from a (possibly blended) score.
func RiskLevelFor(score float64, cfg Config) string {
	switch {
	case score >= cfg.HighRiskThreshold:
		return models.RiskLevelHigh
	case score >= cfg.LowRiskThreshold:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}
