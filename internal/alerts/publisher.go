// Package alerts publishes medium- and high-risk assessments onto a Kafka
// topic for downstream consumers (case management, operator dashboards)
// that should not have to poll the risk_assessments table.
package alerts

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/enterprise/fraud-risk-engine/internal/config"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// Alert is the payload published for one flagged transaction.
type Alert struct {
	TransactionID  string   `json:"transaction_id"`
	RiskScore      int      `json:"risk_score"`
	RiskLevel      string   `json:"risk_level"`
	TriggeredRules []string `json:"triggered_rules"`
}

// Publisher publishes risk alerts to Kafka. A nil Publisher (Kafka
// unavailable at startup) is a valid no-op, matching spec.md's treatment of
// downstream alerting as best-effort rather than load-bearing.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher dials the configured Kafka brokers and returns a
// Publisher ready to send alerts.
func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}

	return &Publisher{producer: producer, topic: cfg.AlertTopic}, nil
}

// PublishIfFlagged sends an alert when the assessment is medium or high
// risk, and is a no-op for low risk assessments.
func (p *Publisher) PublishIfFlagged(assessment *models.RiskAssessment) {
	if p == nil || assessment.RiskLevel == models.RiskLevelLow {
		return
	}

	alert := Alert{
		TransactionID:  assessment.TransactionID,
		RiskScore:      assessment.RiskScore,
		RiskLevel:      assessment.RiskLevel,
		TriggeredRules: assessment.TriggeredRules,
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", assessment.TransactionID).Msg("failed to marshal alert")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(assessment.TransactionID),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		log.Warn().Err(err).Str("transaction_id", assessment.TransactionID).Msg("failed to publish alert")
		return
	}

	log.Debug().
		Str("transaction_id", assessment.TransactionID).
		Str("risk_level", assessment.RiskLevel).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("alert published")
}

// Close releases the underlying Kafka producer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
