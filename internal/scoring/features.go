package scoring

import (
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// FeatureCount is the fixed length of the supervised scorer's feature
// vector.
const FeatureCount = 12

// ExtractFeatures projects a transaction plus its computed indicator
// scores into the fixed-order 12-feature vector the supervised scorer
// trains and predicts on: the seven indicator scores, amount,
// distance_km, duration_minutes, hour_of_day, day_of_week (0 = Monday).
func ExtractFeatures(tx models.Transaction, scores models.IndicatorScores) [FeatureCount]float64 {
	weekday := int(tx.Timestamp.Weekday())
	// time.Weekday has Sunday = 0; the spec wants Monday = 0.
	dayOfWeek := (weekday + 6) % 7

	return [FeatureCount]float64{
		scores.Velocity,
		scores.Geographic,
		scores.Amount,
		scores.CardTesting,
		scores.Collusion,
		scores.ATO,
		scores.FraudRing,
		tx.Amount,
		tx.DistanceKM,
		tx.DurationMinutes,
		float64(tx.Timestamp.Hour()),
		float64(dayOfWeek),
	}
}

// FeatureNames names the vector's components in order, used for
// reporting per-feature importance from the trained model.
var FeatureNames = [FeatureCount]string{
	"velocity_score", "geographic_score", "amount_score", "card_testing_score",
	"collusion_score", "ato_score", "fraud_ring_score",
	"amount", "distance_km", "duration_minutes", "hour_of_day", "day_of_week",
}
