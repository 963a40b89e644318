package hybrid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

func TestCombineWithoutModelPassesRuleScoreThrough(t *testing.T) {
	cfg := scoring.DefaultConfig()
	rule := scoring.AggregateResult{Score: 42, RiskLevel: scoring.RiskLevelFor(42, cfg)}
	res := Combine(rule, 0, false, cfg)
	assert.Equal(t, 42, res.Score)
	assert.False(t, res.UsedModel)
	assert.Nil(t, res.MLScore)
}

func TestCombineBlendsRuleAndMLScores(t *testing.T) {
	cfg := scoring.DefaultConfig()
	rule := scoring.AggregateResult{Score: 50, RiskLevel: scoring.RiskLevelFor(50, cfg)}
	res := Combine(rule, 80, true, cfg)
	// 0.4*50 + 0.6*80 = 68
	assert.Equal(t, 68, res.Score)
	assert.True(t, res.UsedModel)
	assert.Equal(t, scoring.RiskLevelFor(68, cfg), res.RiskLevel)
}

func TestCombineClampsToBounds(t *testing.T) {
	cfg := scoring.DefaultConfig()
	rule := scoring.AggregateResult{Score: 100, RiskLevel: scoring.RiskLevelFor(100, cfg)}
	res := Combine(rule, 100, true, cfg)
	assert.LessOrEqual(t, res.Score, 100)
}
