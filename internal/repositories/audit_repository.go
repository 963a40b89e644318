package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// AuditRepository persists the audit trail, such as the ingestion
// service's per-transaction scoring entries.
type AuditRepository struct {
	db *Database
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *Database) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create creates a new audit log entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, event_type, entity_id, entity_type, user_id, action,
			payload, ip_address, user_agent, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::inet, $9, $10, $11)
	`

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()

	payloadBytes, _ := entry.Payload.Value()

	_, err := r.db.Pool.Exec(ctx, query,
		entry.ID,
		entry.EventType,
		entry.EntityID,
		entry.EntityType,
		entry.UserID,
		entry.Action,
		payloadBytes,
		nullableIP(entry.IPAddress),
		entry.UserAgent,
		entry.RequestID,
		entry.CreatedAt,
	)

	return err
}

// GetByEntityID retrieves audit logs for an entity with pagination.
func (r *AuditRepository) GetByEntityID(ctx context.Context, entityType, entityID string, page, pageSize int) ([]*models.AuditLog, int, error) {
	offset := (page - 1) * pageSize

	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE entity_type = $1 AND entity_id = $2`
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, entityType, entityID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, event_type, entity_id, entity_type, user_id, action,
			   payload, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Pool.Query(ctx, query, entityType, entityID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return r.scanAuditLogs(rows, total)
}

// GetByEventType retrieves audit logs by event type with pagination.
func (r *AuditRepository) GetByEventType(ctx context.Context, eventType string, page, pageSize int) ([]*models.AuditLog, int, error) {
	offset := (page - 1) * pageSize

	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE event_type = $1`
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, eventType).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, event_type, entity_id, entity_type, user_id, action,
			   payload, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		WHERE event_type = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, eventType, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return r.scanAuditLogs(rows, total)
}

// GetRecent retrieves the most recent audit log entries.
func (r *AuditRepository) GetRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, event_type, entity_id, entity_type, user_id, action,
			   payload, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs, _, err := r.scanAuditLogs(rows, 0)
	return logs, err
}

func nullableIP(ip string) *string {
	if ip == "" {
		return nil
	}
	return &ip
}

func (r *AuditRepository) scanAuditLogs(rows pgx.Rows, total int) ([]*models.AuditLog, int, error) {
	var logs []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var payloadBytes []byte
		var ipAddress *string

		if err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.EntityID,
			&entry.EntityType,
			&entry.UserID,
			&entry.Action,
			&payloadBytes,
			&ipAddress,
			&entry.UserAgent,
			&entry.RequestID,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, err
		}

		if ipAddress != nil {
			entry.IPAddress = *ipAddress
		}
		entry.Payload.Scan(payloadBytes)
		logs = append(logs, entry)
	}

	return logs, total, nil
}
