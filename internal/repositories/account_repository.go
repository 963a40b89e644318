package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/enterprise/fraud-risk-engine/internal/models"
)

var ErrAccountProfileNotFound = errors.New("account risk profile not found")

// AccountRepository persists the rolling per-user risk profile used by
// the dashboard and by operators triaging a flagged user.
type AccountRepository struct {
	db *Database
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *Database) *AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert writes a user's current risk profile, replacing any prior row.
func (r *AccountRepository) Upsert(ctx context.Context, profile *models.AccountRiskProfile) error {
	query := `
		INSERT INTO account_risk_profiles (
			user_id, current_risk_level, avg_transaction_amount,
			transaction_count_30d, flagged_count_30d, last_transaction_at, risk_trend
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			current_risk_level = EXCLUDED.current_risk_level,
			avg_transaction_amount = EXCLUDED.avg_transaction_amount,
			transaction_count_30d = EXCLUDED.transaction_count_30d,
			flagged_count_30d = EXCLUDED.flagged_count_30d,
			last_transaction_at = EXCLUDED.last_transaction_at,
			risk_trend = EXCLUDED.risk_trend
	`

	_, err := r.db.Pool.Exec(ctx, query,
		profile.UserID,
		profile.CurrentRiskLevel,
		profile.AvgTransactionAmount,
		profile.TransactionCount30d,
		profile.FlaggedCount30d,
		profile.LastTransactionAt,
		profile.RiskTrend,
	)
	return err
}

// GetByUserID retrieves one user's risk profile.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*models.AccountRiskProfile, error) {
	query := `
		SELECT user_id, current_risk_level, avg_transaction_amount,
			transaction_count_30d, flagged_count_30d, last_transaction_at, risk_trend
		FROM account_risk_profiles
		WHERE user_id = $1
	`

	profile := &models.AccountRiskProfile{}
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.CurrentRiskLevel,
		&profile.AvgTransactionAmount,
		&profile.TransactionCount30d,
		&profile.FlaggedCount30d,
		&profile.LastTransactionAt,
		&profile.RiskTrend,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// ListByRiskLevel retrieves profiles at a given risk level with
// pagination, newest-transaction first — the feed an operator dashboard
// would page through.
func (r *AccountRepository) ListByRiskLevel(ctx context.Context, riskLevel string, page, pageSize int) ([]*models.AccountRiskProfile, int, error) {
	offset := (page - 1) * pageSize

	countQuery := `SELECT COUNT(*) FROM account_risk_profiles WHERE current_risk_level = $1`
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, riskLevel).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT user_id, current_risk_level, avg_transaction_amount,
			transaction_count_30d, flagged_count_30d, last_transaction_at, risk_trend
		FROM account_risk_profiles
		WHERE current_risk_level = $1
		ORDER BY last_transaction_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, riskLevel, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var profiles []*models.AccountRiskProfile
	for rows.Next() {
		profile := &models.AccountRiskProfile{}
		if err := rows.Scan(
			&profile.UserID,
			&profile.CurrentRiskLevel,
			&profile.AvgTransactionAmount,
			&profile.TransactionCount30d,
			&profile.FlaggedCount30d,
			&profile.LastTransactionAt,
			&profile.RiskTrend,
		); err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, profile)
	}

	return profiles, total, nil
}
