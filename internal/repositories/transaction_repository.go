package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/enterprise/fraud-risk-engine/internal/models"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("duplicate transaction (transaction_id exists)")
)

// TransactionRepository persists the raw transactions the orchestrator
// scores, independent of their risk assessments.
type TransactionRepository struct {
	db *Database
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *Database) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts one transaction, generating a transaction_id if the
// caller didn't supply one.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (
			transaction_id, "timestamp", user_id, driver_id, card_last4, device_id,
			pickup_city, pickup_country, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			distance_km, duration_minutes, amount, currency, payment_status, is_fraudulent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	if tx.TransactionID == "" {
		tx.TransactionID = uuid.New().String()
	}

	_, err := r.db.Pool.Exec(ctx, query,
		tx.TransactionID,
		tx.Timestamp,
		tx.UserID,
		tx.DriverID,
		tx.CardLast4,
		tx.DeviceID,
		tx.PickupCity,
		tx.PickupCountry,
		tx.PickupLat,
		tx.PickupLng,
		tx.DropoffLat,
		tx.DropoffLng,
		tx.DistanceKM,
		tx.DurationMinutes,
		tx.Amount,
		tx.Currency,
		tx.PaymentStatus,
		tx.IsFraudulent,
	)

	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateTransaction
		}
		return err
	}

	return nil
}

// CreateBatch inserts multiple transactions, skipping any whose
// transaction_id already exists.
func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []*models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO transactions (
			transaction_id, "timestamp", user_id, driver_id, card_last4, device_id,
			pickup_city, pickup_country, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			distance_km, duration_minutes, amount, currency, payment_status, is_fraudulent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (transaction_id) DO NOTHING
	`

	for _, tx := range transactions {
		if tx.TransactionID == "" {
			tx.TransactionID = uuid.New().String()
		}
		batch.Queue(query,
			tx.TransactionID,
			tx.Timestamp,
			tx.UserID,
			tx.DriverID,
			tx.CardLast4,
			tx.DeviceID,
			tx.PickupCity,
			tx.PickupCountry,
			tx.PickupLat,
			tx.PickupLng,
			tx.DropoffLat,
			tx.DropoffLng,
			tx.DistanceKM,
			tx.DurationMinutes,
			tx.Amount,
			tx.Currency,
			tx.PaymentStatus,
			tx.IsFraudulent,
		)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range transactions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	return nil
}

const transactionColumns = `
	transaction_id, "timestamp", user_id, driver_id, card_last4, device_id,
	pickup_city, pickup_country, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	distance_km, duration_minutes, amount, currency, payment_status, is_fraudulent
`

// GetByID retrieves a transaction by its transaction_id.
func (r *TransactionRepository) GetByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	tx := &models.Transaction{}
	err := r.db.Pool.QueryRow(ctx, query, transactionID).Scan(scanTargets(tx)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// GetByUserID retrieves transactions for a user with pagination, newest
// first, optionally bounded by a time window.
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, startDate, endDate *time.Time) ([]*models.Transaction, int, error) {
	offset := (page - 1) * pageSize

	countQuery := `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = $1
		AND ($2::timestamptz IS NULL OR "timestamp" >= $2)
		AND ($3::timestamptz IS NULL OR "timestamp" <= $3)
	`
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, userID, startDate, endDate).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		AND ($4::timestamptz IS NULL OR "timestamp" >= $4)
		AND ($5::timestamptz IS NULL OR "timestamp" <= $5)
		ORDER BY "timestamp" DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, pageSize, offset, startDate, endDate)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return r.scanTransactions(rows, total)
}

// GetRecentByUser retrieves a user's transactions since a point in time,
// oldest first.
func (r *TransactionRepository) GetRecentByUser(ctx context.Context, userID string, since time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND "timestamp" >= $2
		ORDER BY "timestamp" ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions, _, err := r.scanTransactions(rows, 0)
	return transactions, err
}

// GetRecent retrieves one page of transactions from the last 7 days
// across every user, newest first; the cmd entrypoints seed the
// orchestrator's history from its first page.
func (r *TransactionRepository) GetRecent(ctx context.Context, page, pageSize int) ([]*models.Transaction, int, error) {
	offset := (page - 1) * pageSize

	countQuery := `SELECT COUNT(*) FROM transactions WHERE "timestamp" >= NOW() - INTERVAL '7 days'`
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE "timestamp" >= NOW() - INTERVAL '7 days'
		ORDER BY "timestamp" DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return r.scanTransactions(rows, total)
}

// GetTransactionStats retrieves summary statistics for one user's
// transactions over the last given number of days.
func (r *TransactionRepository) GetTransactionStats(ctx context.Context, userID string, days int) (map[string]interface{}, error) {
	query := `
		SELECT
			COUNT(*) as total_count,
			COALESCE(SUM(amount), 0) as total_amount,
			COALESCE(AVG(amount), 0) as avg_amount,
			COALESCE(STDDEV(amount), 0) as stddev_amount,
			COUNT(DISTINCT pickup_city) as unique_cities,
			COUNT(DISTINCT driver_id) as unique_drivers
		FROM transactions
		WHERE user_id = $1 AND "timestamp" >= NOW() - ($2 || ' days')::interval
	`

	var totalCount int
	var totalAmount, avgAmount, stddevAmount float64
	var uniqueCities, uniqueDrivers int

	daysStr := fmt.Sprintf("%d", days)

	err := r.db.Pool.QueryRow(ctx, query, userID, daysStr).Scan(
		&totalCount,
		&totalAmount,
		&avgAmount,
		&stddevAmount,
		&uniqueCities,
		&uniqueDrivers,
	)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_count":    totalCount,
		"total_amount":   totalAmount,
		"avg_amount":     avgAmount,
		"stddev_amount":  stddevAmount,
		"unique_cities":  uniqueCities,
		"unique_drivers": uniqueDrivers,
	}, nil
}

func scanTargets(tx *models.Transaction) []interface{} {
	return []interface{}{
		&tx.TransactionID,
		&tx.Timestamp,
		&tx.UserID,
		&tx.DriverID,
		&tx.CardLast4,
		&tx.DeviceID,
		&tx.PickupCity,
		&tx.PickupCountry,
		&tx.PickupLat,
		&tx.PickupLng,
		&tx.DropoffLat,
		&tx.DropoffLng,
		&tx.DistanceKM,
		&tx.DurationMinutes,
		&tx.Amount,
		&tx.Currency,
		&tx.PaymentStatus,
		&tx.IsFraudulent,
	}
}

func (r *TransactionRepository) scanTransactions(rows pgx.Rows, total int) ([]*models.Transaction, int, error) {
	var transactions []*models.Transaction
	for rows.Next() {
		tx := &models.Transaction{}
		if err := rows.Scan(scanTargets(tx)...); err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, total, nil
}
