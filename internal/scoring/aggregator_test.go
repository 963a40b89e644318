package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/enterprise/fraud-risk-engine/internal/models"
)

func TestAggregateWeightedSum(t *testing.T) {
	cfg := DefaultConfig()
	scores := models.IndicatorScores{
		Velocity: 20, Geographic: 0, Amount: 0, CardTesting: 0,
		Collusion: 0, ATO: 0, FraudRing: 0,
	}
	res := Aggregate(scores, cfg)
	assert.Equal(t, 5, res.Score) // 20 * 0.25 = 5
	assert.Equal(t, models.RiskLevelLow, res.RiskLevel)
}

func TestAggregateMaxIndicatorFloor(t *testing.T) {
	cfg := DefaultConfig()
	scores := models.IndicatorScores{Velocity: 0, Geographic: 0, Amount: 0, CardTesting: 0, Collusion: 0, ATO: 0, FraudRing: 95}
	res := Aggregate(scores, cfg)
	assert.GreaterOrEqual(t, res.Score, 80)
}

func TestAggregateStrongIndicatorFloor(t *testing.T) {
	cfg := DefaultConfig()
	scores := models.IndicatorScores{Velocity: 25, Geographic: 25, Amount: 25, CardTesting: 0, Collusion: 0, ATO: 0, FraudRing: 0}
	res := Aggregate(scores, cfg)
	assert.GreaterOrEqual(t, res.Score, 55)
}

func TestAggregateClampedAndBounded(t *testing.T) {
	cfg := DefaultConfig()
	scores := models.IndicatorScores{Velocity: 100, Geographic: 100, Amount: 100, CardTesting: 100, Collusion: 100, ATO: 100, FraudRing: 100}
	res := Aggregate(scores, cfg)
	assert.LessOrEqual(t, res.Score, 100)
	assert.Equal(t, models.RiskLevelHigh, res.RiskLevel)
}

func TestAggregateEmptyIsLowRisk(t *testing.T) {
	cfg := DefaultConfig()
	res := Aggregate(models.IndicatorScores{}, cfg)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, models.RiskLevelLow, res.RiskLevel)
}

func TestExtractFeaturesOrder(t *testing.T) {
	tx := models.Transaction{Amount: 500, DistanceKM: 12.5, DurationMinutes: 30}
	scores := models.IndicatorScores{Velocity: 1, Geographic: 2, Amount: 3, CardTesting: 4, Collusion: 5, ATO: 6, FraudRing: 7}
	f := ExtractFeatures(tx, scores)
	assert.Equal(t, 1.0, f[0])
	assert.Equal(t, 7.0, f[6])
	assert.Equal(t, 500.0, f[7])
	assert.Equal(t, 12.5, f[8])
	assert.Equal(t, 30.0, f[9])
}
