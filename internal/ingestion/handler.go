// Package ingestion is the thin service layer between the HTTP/queue
// transport and the scoring core: it validates incoming transactions,
// scores them through the orchestrator, persists the transaction and
// its assessment, and publishes single ingested transactions onto the
// Redis transaction stream.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/enterprise/fraud-risk-engine/internal/models"
	"github.com/enterprise/fraud-risk-engine/internal/orchestrator"
	"github.com/enterprise/fraud-risk-engine/internal/queue"
	"github.com/enterprise/fraud-risk-engine/internal/repositories"
)

// TransactionRequest is an incoming ride-hailing payment transaction.
type TransactionRequest struct {
	TransactionID   string  `json:"transaction_id"`
	Timestamp       string  `json:"timestamp" binding:"required"`
	UserID          string  `json:"user_id" binding:"required"`
	DriverID        string  `json:"driver_id" binding:"required"`
	CardLast4       string  `json:"card_last4" binding:"required,len=4"`
	DeviceID        string  `json:"device_id" binding:"required"`
	PickupCity      string  `json:"pickup_city"`
	PickupCountry   string  `json:"pickup_country"`
	PickupLat       float64 `json:"pickup_lat"`
	PickupLng       float64 `json:"pickup_lng"`
	DropoffLat      float64 `json:"dropoff_lat"`
	DropoffLng      float64 `json:"dropoff_lng"`
	DistanceKM      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Currency        string  `json:"currency" binding:"required,len=3"`
	PaymentStatus   string  `json:"payment_status"`
}

// BatchTransactionRequest is a batch of transactions, scored in the
// order they arrive.
type BatchTransactionRequest struct {
	Transactions []TransactionRequest `json:"transactions" binding:"required,min=1,max=1000"`
}

// TransactionResponse is the assessment produced for one transaction.
type TransactionResponse struct {
	TransactionID string    `json:"transaction_id"`
	RiskScore     int       `json:"risk_score"`
	RiskLevel     string    `json:"risk_level"`
	ProcessedAt   time.Time `json:"processed_at"`
	Message       string    `json:"message,omitempty"`
}

// BatchTransactionResponse is the per-transaction result of a batch
// ingest call.
type BatchTransactionResponse struct {
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
	Results    []TransactionResponse  `json:"results"`
}

// IngestionService wires the HTTP/queue transport to the scoring core.
type IngestionService struct {
	txRepo    *repositories.TransactionRepository
	scoreRepo *repositories.RiskScoreRepository
	auditRepo *repositories.AuditRepository
	stream    *queue.RedisStreamClient
	orch      *orchestrator.Orchestrator
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	txRepo *repositories.TransactionRepository,
	scoreRepo *repositories.RiskScoreRepository,
	auditRepo *repositories.AuditRepository,
	stream *queue.RedisStreamClient,
	orch *orchestrator.Orchestrator,
) *IngestionService {
	return &IngestionService{
		txRepo:    txRepo,
		scoreRepo: scoreRepo,
		auditRepo: auditRepo,
		stream:    stream,
		orch:      orch,
	}
}

func toTransaction(req TransactionRequest) (models.Transaction, error) {
	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid timestamp %q: %w", req.Timestamp, err)
	}

	status := req.PaymentStatus
	if status == "" {
		status = models.PaymentStatusCompleted
	}

	return models.Transaction{
		TransactionID:   req.TransactionID,
		Timestamp:       ts.UTC(),
		UserID:          req.UserID,
		DriverID:        req.DriverID,
		CardLast4:       req.CardLast4,
		DeviceID:        req.DeviceID,
		PickupCity:      req.PickupCity,
		PickupCountry:   req.PickupCountry,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DropoffLat:      req.DropoffLat,
		DropoffLng:      req.DropoffLng,
		DistanceKM:      req.DistanceKM,
		DurationMinutes: req.DurationMinutes,
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentStatus:   status,
	}, nil
}

// IngestTransaction scores one transaction, persists it and its
// assessment, publishes the transaction onto the Redis transaction
// stream, and writes an audit log entry.
func (s *IngestionService) IngestTransaction(ctx context.Context, req *TransactionRequest, requestID string) (*TransactionResponse, error) {
	tx, err := toTransaction(*req)
	if err != nil {
		return nil, err
	}

	assessment, err := s.orch.Score(tx)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	if err := s.txRepo.Create(ctx, &tx); err != nil && err != repositories.ErrDuplicateTransaction {
		log.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to persist transaction")
	}
	if err := s.scoreRepo.Create(ctx, assessment); err != nil {
		log.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to persist risk assessment")
	}

	if _, err := s.stream.Publish(ctx, &tx); err != nil {
		log.Warn().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to publish transaction to stream")
	}

	s.createAuditLog(ctx, tx, requestID, "score")

	return &TransactionResponse{
		TransactionID: assessment.TransactionID,
		RiskScore:     assessment.RiskScore,
		RiskLevel:     assessment.RiskLevel,
		ProcessedAt:   assessment.ProcessedAt,
	}, nil
}

// IngestBatch scores an ordered batch of transactions in a single
// orchestrator call, so later transactions see earlier ones in history.
func (s *IngestionService) IngestBatch(ctx context.Context, req *BatchTransactionRequest, requestID string) (*BatchTransactionResponse, error) {
	response := &BatchTransactionResponse{
		Results: make([]TransactionResponse, 0, len(req.Transactions)),
	}

	var parsed []models.Transaction
	for _, txReq := range req.Transactions {
		tx, err := toTransaction(txReq)
		if err != nil {
			response.Failed++
			response.Results = append(response.Results, TransactionResponse{
				Message: err.Error(),
			})
			continue
		}
		parsed = append(parsed, tx)
	}

	assessments := s.orch.ScoreBatch(parsed)

	for _, a := range assessments {
		response.Successful++
		response.Results = append(response.Results, TransactionResponse{
			TransactionID: a.TransactionID,
			RiskScore:     a.RiskScore,
			RiskLevel:     a.RiskLevel,
			ProcessedAt:   a.ProcessedAt,
		})
		if err := s.scoreRepo.Create(ctx, a); err != nil {
			log.Error().Err(err).Str("transaction_id", a.TransactionID).Msg("failed to persist batch assessment")
		}
	}

	if err := s.txRepo.CreateBatch(ctx, toPointers(parsed)); err != nil {
		log.Error().Err(err).Msg("failed to batch insert transactions")
	}

	log.Info().
		Int("total", len(req.Transactions)).
		Int("successful", response.Successful).
		Int("failed", response.Failed).
		Msg("batch ingestion completed")

	return response, nil
}

func toPointers(txs []models.Transaction) []*models.Transaction {
	out := make([]*models.Transaction, len(txs))
	for i := range txs {
		out[i] = &txs[i]
	}
	return out
}

func (s *IngestionService) createAuditLog(ctx context.Context, tx models.Transaction, requestID, action string) {
	entry := &models.AuditLog{
		EventType:  "transaction_scored",
		EntityID:   tx.TransactionID,
		EntityType: "transaction",
		UserID:     tx.UserID,
		Action:     action,
		RequestID:  requestID,
		Payload: models.JSONB{
			"amount":      tx.Amount,
			"currency":    tx.Currency,
			"pickup_city": tx.PickupCity,
			"user_id":     tx.UserID,
		},
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("failed to create audit log")
	}
}

// GetTransaction retrieves a transaction by ID.
func (s *IngestionService) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return s.txRepo.GetByID(ctx, transactionID)
}

// GetAssessment retrieves a transaction's risk assessment by ID.
func (s *IngestionService) GetAssessment(ctx context.Context, transactionID string) (*models.RiskAssessment, error) {
	return s.scoreRepo.GetByTransactionID(ctx, transactionID)
}

// GetTransactionsByUser retrieves transactions for a user with
// pagination.
func (s *IngestionService) GetTransactionsByUser(ctx context.Context, userID string, page, pageSize int, startDate, endDate *time.Time) ([]*models.Transaction, int, error) {
	return s.txRepo.GetByUserID(ctx, userID, page, pageSize, startDate, endDate)
}
