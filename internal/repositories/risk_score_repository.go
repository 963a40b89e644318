package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/enterprise/fraud-risk-engine/internal/models"
	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

var ErrRiskScoreNotFound = errors.New("risk assessment not found")

// RiskScoreRepository persists the RiskAssessment the orchestrator
// emits for each transaction it scores.
type RiskScoreRepository struct {
	db *Database
}

// NewRiskScoreRepository creates a new risk score repository.
func NewRiskScoreRepository(db *Database) *RiskScoreRepository {
	return &RiskScoreRepository{db: db}
}

// Create persists one assessment, keyed by its transaction_id.
func (r *RiskScoreRepository) Create(ctx context.Context, a *models.RiskAssessment) error {
	query := `
		INSERT INTO risk_assessments (
			transaction_id, risk_score, risk_level,
			velocity_score, geographic_score, amount_score, card_testing_score,
			collusion_score, ato_score, fraud_ring_score, ml_score,
			triggered_rules, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		a.TransactionID,
		a.RiskScore,
		a.RiskLevel,
		a.VelocityScore,
		a.GeographicScore,
		a.AmountScore,
		a.CardTestingScore,
		a.CollusionScore,
		a.ATOScore,
		a.FraudRingScore,
		a.MLScore,
		pq.Array(a.TriggeredRules),
		a.ProcessedAt,
	)
	return err
}

const riskAssessmentColumns = `
	transaction_id, risk_score, risk_level,
	velocity_score, geographic_score, amount_score, card_testing_score,
	collusion_score, ato_score, fraud_ring_score, ml_score,
	triggered_rules, processed_at
`

// GetByTransactionID retrieves the assessment for one transaction.
func (r *RiskScoreRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.RiskAssessment, error) {
	query := `SELECT ` + riskAssessmentColumns + ` FROM risk_assessments WHERE transaction_id = $1`

	a := &models.RiskAssessment{}
	var rules []string
	err := r.db.Pool.QueryRow(ctx, query, transactionID).Scan(
		&a.TransactionID,
		&a.RiskScore,
		&a.RiskLevel,
		&a.VelocityScore,
		&a.GeographicScore,
		&a.AmountScore,
		&a.CardTestingScore,
		&a.CollusionScore,
		&a.ATOScore,
		&a.FraudRingScore,
		&a.MLScore,
		&rules,
		&a.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRiskScoreNotFound
		}
		return nil, err
	}
	a.TriggeredRules = rules
	return a, nil
}

// GetByRiskLevel retrieves assessments at a risk level with pagination.
func (r *RiskScoreRepository) GetByRiskLevel(ctx context.Context, riskLevel string, page, pageSize int) ([]*models.RiskAssessment, int, error) {
	offset := (page - 1) * pageSize

	countQuery := `SELECT COUNT(*) FROM risk_assessments WHERE risk_level = $1`
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, riskLevel).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + riskAssessmentColumns + `
		FROM risk_assessments
		WHERE risk_level = $1
		ORDER BY processed_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, riskLevel, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return r.scanAssessments(rows, total)
}

// GetDailySummary aggregates one calendar day's assessments into the
// dashboard metrics contract.
func (r *RiskScoreRepository) GetDailySummary(ctx context.Context, date time.Time) (*models.DashboardMetrics, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	query := `
		SELECT
			COUNT(*) as total_transactions,
			COUNT(CASE WHEN risk_level = 'high_risk' THEN 1 END) as high_risk_count,
			COUNT(CASE WHEN risk_level = 'medium_risk' THEN 1 END) as medium_risk_count,
			COUNT(CASE WHEN risk_level = 'low_risk' THEN 1 END) as low_risk_count,
			COALESCE(AVG(risk_score), 0) as avg_risk_score
		FROM risk_assessments
		WHERE processed_at >= $1 AND processed_at < $2
	`

	metrics := &models.DashboardMetrics{TransactionsToday: 0}
	err := r.db.Pool.QueryRow(ctx, query, startOfDay, endOfDay).Scan(
		&metrics.TotalTransactions,
		&metrics.HighRiskCount,
		&metrics.MediumRiskCount,
		&metrics.LowRiskCount,
		&metrics.AvgRiskScore,
	)
	if err != nil {
		return nil, err
	}
	metrics.TransactionsToday = metrics.TotalTransactions
	if metrics.TotalTransactions > 0 {
		metrics.FraudRate = float64(metrics.HighRiskCount) / float64(metrics.TotalTransactions)
	}

	amountQuery := `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN risk_assessments rs ON rs.transaction_id = t.transaction_id
		WHERE rs.risk_level IN ('high_risk', 'medium_risk')
		AND rs.processed_at >= $1 AND rs.processed_at < $2
	`
	if err := r.db.Pool.QueryRow(ctx, amountQuery, startOfDay, endOfDay).Scan(&metrics.TotalAmountAtRisk); err != nil {
		return nil, err
	}

	return metrics, nil
}

// TopTriggeredRules returns the most frequently fired rule tags over a
// date range, for operator triage.
func (r *RiskScoreRepository) TopTriggeredRules(ctx context.Context, since time.Time, limit int) ([]models.RuleCount, error) {
	query := `
		SELECT split_part(rule, ':', 1) as rule_tag, COUNT(*) as count
		FROM risk_assessments, unnest(triggered_rules) as rule
		WHERE processed_at >= $1
		GROUP BY rule_tag
		ORDER BY count DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RuleCount
	for rows.Next() {
		var rc models.RuleCount
		if err := rows.Scan(&rc.RuleTag, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, nil
}

// GetTrainingData joins every scored transaction against its assessment
// and projects it into a (feature vector, fraud label) pair, the shape
// internal/ml.Train consumes. Every transaction with a stored assessment
// participates; its is_fraudulent column is taken as the label as stored.
func (r *RiskScoreRepository) GetTrainingData(ctx context.Context) ([][scoring.FeatureCount]float64, []bool, error) {
	query := `
		SELECT
			ra.velocity_score, ra.geographic_score, ra.amount_score, ra.card_testing_score,
			ra.collusion_score, ra.ato_score, ra.fraud_ring_score,
			t.amount, t.distance_km, t.duration_minutes, t."timestamp", t.is_fraudulent
		FROM risk_assessments ra
		JOIN transactions t ON t.transaction_id = ra.transaction_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var features [][scoring.FeatureCount]float64
	var labels []bool
	for rows.Next() {
		var scores models.IndicatorScores
		var amount, distanceKM, durationMinutes float64
		var ts time.Time
		var isFraudulent bool

		if err := rows.Scan(
			&scores.Velocity, &scores.Geographic, &scores.Amount, &scores.CardTesting,
			&scores.Collusion, &scores.ATO, &scores.FraudRing,
			&amount, &distanceKM, &durationMinutes, &ts, &isFraudulent,
		); err != nil {
			return nil, nil, err
		}

		tx := models.Transaction{Timestamp: ts, Amount: amount, DistanceKM: distanceKM, DurationMinutes: durationMinutes}
		features = append(features, scoring.ExtractFeatures(tx, scores))
		labels = append(labels, isFraudulent)
	}

	return features, labels, nil
}

func (r *RiskScoreRepository) scanAssessments(rows pgx.Rows, total int) ([]*models.RiskAssessment, int, error) {
	var out []*models.RiskAssessment
	for rows.Next() {
		a := &models.RiskAssessment{}
		var rules []string
		if err := rows.Scan(
			&a.TransactionID,
			&a.RiskScore,
			&a.RiskLevel,
			&a.VelocityScore,
			&a.GeographicScore,
			&a.AmountScore,
			&a.CardTestingScore,
			&a.CollusionScore,
			&a.ATOScore,
			&a.FraudRingScore,
			&a.MLScore,
			&rules,
			&a.ProcessedAt,
		); err != nil {
			return nil, 0, err
		}
		a.TriggeredRules = rules
		out = append(out, a)
	}
	return out, total, nil
}
