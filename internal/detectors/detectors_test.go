package detectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

func baseTx(id string, ts time.Time) models.Transaction {
	return models.Transaction{
		TransactionID: id,
		Timestamp:     ts,
		UserID:        "u1",
		DriverID:      "d1",
		CardLast4:     "1234",
		DeviceID:      "dev1",
		PickupCity:    "Lagos",
		PickupCountry: "NG",
		PickupLat:     6.5244,
		PickupLng:     3.3792,
		DropoffLat:    6.6,
		DropoffLng:    3.4,
		Amount:        1000,
		Currency:      models.CurrencyNGN,
		PaymentStatus: models.PaymentStatusCompleted,
	}
}

func TestVelocityExtreme(t *testing.T) {
	h := history.New()
	base := time.Date(2025, 2, 15, 11, 50, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		tx := baseTx("prior", base.Add(time.Duration(i)*time.Minute))
		h.Append(tx)
	}
	current := baseTx("current", time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))

	res := Velocity(current, h)
	assert.GreaterOrEqual(t, res.Score, 80.0)
	assert.NotEmpty(t, res.Rules)
}

func TestVelocityNoHistory(t *testing.T) {
	h := history.New()
	current := baseTx("current", time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))
	res := Velocity(current, h)
	assert.Equal(t, 0.0, res.Score)
	assert.Empty(t, res.Rules)
}

func TestGeographicImpossibleTravel(t *testing.T) {
	h := history.New()
	prior := baseTx("prior", time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC))
	prior.PickupLat, prior.PickupLng, prior.PickupCountry, prior.PickupCity = 6.5244, 3.3792, "NG", "Lagos"
	h.Append(prior)

	current := baseTx("current", time.Date(2025, 2, 15, 10, 15, 0, 0, time.UTC))
	current.PickupLat, current.PickupLng, current.PickupCountry, current.PickupCity = -1.2921, 36.8219, "KE", "Nairobi"

	res := Geographic(current, h)
	assert.Equal(t, 100.0, res.Score)
	assert.Contains(t, res.Rules[0], "GEO_IMPOSSIBLE_TRAVEL")
}

func TestGeographicNoHistory(t *testing.T) {
	h := history.New()
	current := baseTx("current", time.Date(2025, 2, 15, 10, 15, 0, 0, time.UTC))
	res := Geographic(current, h)
	assert.Equal(t, 0.0, res.Score)
	assert.Empty(t, res.Rules)
}

func TestCardTestingConfirmed(t *testing.T) {
	h := history.New()
	base := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		tx := baseTx("prior", base.Add(time.Duration(i)*time.Minute))
		tx.Amount = 100
		h.Append(tx)
	}
	current := baseTx("current", base.Add(10*time.Minute))
	current.Amount = 12000

	res := CardTesting(current, h)
	assert.GreaterOrEqual(t, res.Score, 70.0)
	assert.Contains(t, res.Rules[0], "CARD_TESTING")
}

func TestCollusionHighWithCircular(t *testing.T) {
	h := history.New()
	base := time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		tx := baseTx("prior", base.Add(time.Duration(i)*time.Hour))
		tx.PickupLat, tx.PickupLng = 6.5, 3.4
		tx.DropoffLat, tx.DropoffLng = 6.5001, 3.4001
		h.Append(tx)
	}
	current := baseTx("current", base.Add(20*time.Hour))
	current.PickupLat, current.PickupLng = 6.5, 3.4
	current.DropoffLat, current.DropoffLng = 6.5001, 3.4001

	res := Collusion(current, h)
	assert.GreaterOrEqual(t, res.Score, 70.0)
}

func TestFraudRingHigh(t *testing.T) {
	h := history.New()
	base := time.Date(2025, 2, 15, 8, 0, 0, 0, time.UTC)
	for i, u := range []string{"u2", "u3", "u4"} {
		tx := baseTx("prior", base.Add(time.Duration(i)*time.Hour))
		tx.UserID = u
		tx.Amount = 800
		h.Append(tx)
	}
	current := baseTx("current", base.Add(5*time.Hour))
	current.UserID = "u1"
	current.Amount = 800

	res := FraudRing(current, h)
	assert.GreaterOrEqual(t, res.Score, 70.0)
}

func TestATOClauseOrder(t *testing.T) {
	h := history.New()
	base := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	prior := baseTx("prior", base)
	prior.CardLast4 = "9999"
	prior.DeviceID = "oldDevice"
	prior.PickupCountry = "NG"
	prior.PickupCity = "Lagos"
	h.Append(prior)

	current := baseTx("current", base.Add(48*time.Hour))
	current.CardLast4 = "1111"
	current.DeviceID = "newDevice"
	current.PickupCountry = "NG"
	current.PickupCity = "Lagos"

	res := ATO(current, h)
	assert.Equal(t, 70.0, res.Score)
	assert.Contains(t, res.Rules[0], "ATO_NEW_CARD_DEVICE")
}

func TestATONoHistory(t *testing.T) {
	h := history.New()
	current := baseTx("current", time.Now())
	res := ATO(current, h)
	assert.Equal(t, 0.0, res.Score)
	assert.Empty(t, res.Rules)
}

func TestAmountInsufficientHistory(t *testing.T) {
	h := history.New()
	current := baseTx("current", time.Now())
	res := Amount(current, h)
	assert.Equal(t, 0.0, res.Score)
}
