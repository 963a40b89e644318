package orchestrator

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/fraud-risk-engine/internal/ml"
	"github.com/enterprise/fraud-risk-engine/internal/models"
	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

func testOrchestrator() *Orchestrator {
	return New(nil, ml.NewStore(), scoring.DefaultConfig(), zerolog.Nop())
}

func mkTx(id, userID string, ts time.Time) models.Transaction {
	return models.Transaction{
		TransactionID: id,
		Timestamp:     ts,
		UserID:        userID,
		DriverID:      "driver-1",
		CardLast4:     "1234",
		DeviceID:      "device-1",
		PickupCity:    "Lagos",
		PickupCountry: "NG",
		PickupLat:     6.5244,
		PickupLng:     3.3792,
		Amount:        500,
		Currency:      models.CurrencyNGN,
		PaymentStatus: models.PaymentStatusCompleted,
	}
}

// S2: twelve rapid-fire prior transactions for the same user/card/device
// push velocity to >= 80 with a VELOCITY_* rule.
func TestScoreVelocityScenario(t *testing.T) {
	o := testOrchestrator()
	base := time.Date(2025, 2, 15, 11, 50, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		tx := mkTx("prior", "U", base.Add(time.Duration(i)*time.Minute))
		_, err := o.Score(tx)
		require.NoError(t, err)
	}
	current := mkTx("current", "U", time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))
	assessment, err := o.Score(current)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, assessment.VelocityScore, 80.0)
	assert.True(t, hasPrefix(assessment.TriggeredRules, "VELOCITY_"))
}

// Invariant 3: empty seed history plus a single transaction yields a
// zero score and no triggered rules.
func TestScoreSingleTransactionNoHistoryIsZero(t *testing.T) {
	o := testOrchestrator()
	tx := mkTx("only", "U", time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))
	assessment, err := o.Score(tx)
	require.NoError(t, err)
	assert.Equal(t, 0, assessment.RiskScore)
	assert.Empty(t, assessment.TriggeredRules)
}

// Invariant 1: scores stay within [0, 100] even with an adversarial
// maximal-signal transaction.
func TestScoreBoundsStayInRange(t *testing.T) {
	o := testOrchestrator()
	base := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		tx := mkTx("prior", "U", base.Add(time.Duration(i)*time.Minute))
		tx.Amount = 50
		_, err := o.Score(tx)
		require.NoError(t, err)
	}
	spike := mkTx("spike", "U", base.Add(31*time.Minute))
	spike.Amount = 1000000
	spike.PickupLat, spike.PickupLng = -1.2921, 36.8219
	spike.PickupCountry = "KE"
	assessment, err := o.Score(spike)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, assessment.RiskScore, 0)
	assert.LessOrEqual(t, assessment.RiskScore, 100)
}

// Invariant 2: risk_level reflects the configured thresholds.
func TestRiskLevelMatchesThresholds(t *testing.T) {
	cfg := scoring.DefaultConfig()
	assert.Equal(t, models.RiskLevelHigh, scoring.RiskLevelFor(cfg.HighRiskThreshold, cfg))
	assert.Equal(t, models.RiskLevelMedium, scoring.RiskLevelFor(cfg.LowRiskThreshold, cfg))
	assert.Equal(t, models.RiskLevelLow, scoring.RiskLevelFor(cfg.LowRiskThreshold-1, cfg))
}

func TestScoreRejectsZeroTimestamp(t *testing.T) {
	o := testOrchestrator()
	tx := mkTx("bad", "U", time.Time{})
	_, err := o.Score(tx)
	assert.ErrorIs(t, err, ErrBadTimestamp)
}

func TestScoreBatchSkipsBadTimestampsAndContinues(t *testing.T) {
	o := testOrchestrator()
	good1 := mkTx("good1", "U", time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))
	bad := mkTx("bad", "U", time.Time{})
	good2 := mkTx("good2", "U", time.Date(2025, 2, 15, 12, 5, 0, 0, time.UTC))
	results := o.ScoreBatch([]models.Transaction{good1, bad, good2})
	assert.Len(t, results, 2)
	assert.Equal(t, "good1", results[0].TransactionID)
	assert.Equal(t, "good2", results[1].TransactionID)
}

// Invariant 5: an immutable history scored twice produces the same
// assessment both times (dry-run does not mutate).
func TestScoreDryRunIsRepeatable(t *testing.T) {
	o := testOrchestrator()
	tx := mkTx("only", "U", time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))
	first, err := o.ScoreDryRun(tx)
	require.NoError(t, err)
	second, err := o.ScoreDryRun(tx)
	require.NoError(t, err)
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, 0, o.History().Len())
}

func hasPrefix(rules []string, prefix string) bool {
	for _, r := range rules {
		if len(r) >= len(prefix) && r[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
