// Package hybrid blends the rule aggregator's score with the supervised
// scorer's prediction into the final risk assessment, falling back to
// the rule score alone when no model is active.
package hybrid

import (
	"math"

	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

// Weight of the rule score and the ML score in the blended final score,
// per spec.md §4.11. Not configuration-driven.
const (
	ruleWeight = 0.4
	mlWeight   = 0.6
)

// Result is the final, post-blend score and risk level plus whichever ML
// score was used, if any.
type Result struct {
	Score     int
	RiskLevel string
	MLScore   *float64
	UsedModel bool
}

// Combine blends ruleScore with mlScore when present, re-deriving the
// risk level from the blended score. When mlScore is absent (model
// unavailable), the rule aggregator's result passes through unchanged.
func Combine(rule scoring.AggregateResult, mlScore float64, modelAvailable bool, cfg scoring.Config) Result {
	if !modelAvailable {
		return Result{Score: rule.Score, RiskLevel: rule.RiskLevel, UsedModel: false}
	}

	blended := ruleWeight*float64(rule.Score) + mlWeight*mlScore
	blended = math.Round(blended)
	if blended > 100 {
		blended = 100
	}
	if blended < 0 {
		blended = 0
	}

	score := int(blended)
	mlCopy := mlScore
	return Result{
		Score:     score,
		RiskLevel: scoring.RiskLevelFor(blended, cfg),
		MLScore:   &mlCopy,
		UsedModel: true,
	}
}
