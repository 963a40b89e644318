package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/enterprise/fraud-risk-engine/internal/models"
)

func mkTx(id, user, card, device, driver string, t time.Time) models.Transaction {
	return models.Transaction{
		TransactionID: id,
		Timestamp:     t,
		UserID:        user,
		DriverID:      driver,
		CardLast4:     card,
		DeviceID:      device,
	}
}

func TestHistoryAppendAndQuery(t *testing.T) {
	h := New()
	base := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)

	h.Append(mkTx("t1", "u1", "1234", "d1", "r1", base))
	h.Append(mkTx("t2", "u1", "5678", "d2", "r2", base.Add(time.Minute)))
	h.Append(mkTx("t3", "u2", "1234", "d1", "r1", base.Add(2*time.Minute)))

	assert.Equal(t, 3, h.Len())
	assert.Len(t, h.ByUser("u1"), 2)
	assert.Len(t, h.ByUser("u2"), 1)
	assert.Len(t, h.ByCard("1234"), 2)
	assert.Len(t, h.ByDevice("d1"), 2)
	assert.Len(t, h.ByPair("u1", "r1"), 1)
	assert.Len(t, h.ByPair("u2", "r1"), 1)
	assert.Empty(t, h.ByUser("nobody"))
}

func TestHistoryInstancesDoNotShareIndices(t *testing.T) {
	h1 := New()
	h2 := New()
	h1.Append(mkTx("t1", "u1", "1234", "d1", "r1", time.Now()))
	assert.Equal(t, 1, h1.Len())
	assert.Equal(t, 0, h2.Len())
	assert.Empty(t, h2.ByUser("u1"))
}

func TestSeedPreservesOrder(t *testing.T) {
	base := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		mkTx("t1", "u1", "1234", "d1", "r1", base),
		mkTx("t2", "u1", "1234", "d1", "r1", base.Add(time.Minute)),
	}
	h := Seed(txs)
	assert.Equal(t, "t1", h.All()[0].TransactionID)
	assert.Equal(t, "t2", h.All()[1].TransactionID)
}
