package alerts

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/fraud-risk-engine/internal/models"
)

func newMockPublisher(t *testing.T, expectations int) (*Publisher, *mocks.SyncProducer) {
	t.Helper()
	producer := mocks.NewSyncProducer(t, nil)
	for i := 0; i < expectations; i++ {
		producer.ExpectSendMessageAndSucceed()
	}
	return &Publisher{producer: producer, topic: "risk-alerts"}, producer
}

func TestPublishIfFlaggedSkipsLowRisk(t *testing.T) {
	p, producer := newMockPublisher(t, 0)
	defer producer.Close()

	p.PublishIfFlagged(&models.RiskAssessment{TransactionID: "tx-1", RiskLevel: models.RiskLevelLow})
}

func TestPublishIfFlaggedSendsMediumAndHighRisk(t *testing.T) {
	p, producer := newMockPublisher(t, 2)
	defer producer.Close()

	p.PublishIfFlagged(&models.RiskAssessment{TransactionID: "tx-2", RiskLevel: models.RiskLevelMedium, RiskScore: 45})
	p.PublishIfFlagged(&models.RiskAssessment{TransactionID: "tx-3", RiskLevel: models.RiskLevelHigh, RiskScore: 90, TriggeredRules: []string{"VELOCITY_SPIKE"}})
}

func TestAlertPayloadCarriesTriggeredRules(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var alert Alert
		if err := json.Unmarshal(val, &alert); err != nil {
			return err
		}
		if len(alert.TriggeredRules) != 1 || alert.TriggeredRules[0] != "ATO_NEW_DEVICE" {
			return fmt.Errorf("unexpected triggered rules in payload: %v", alert.TriggeredRules)
		}
		return nil
	})
	p := &Publisher{producer: producer, topic: "risk-alerts"}

	p.PublishIfFlagged(&models.RiskAssessment{
		TransactionID:  "tx-4",
		RiskLevel:      models.RiskLevelHigh,
		RiskScore:      95,
		TriggeredRules: []string{"ATO_NEW_DEVICE"},
	})

	assert.Equal(t, "risk-alerts", p.topic)
	require.NotNil(t, p.producer)
}
