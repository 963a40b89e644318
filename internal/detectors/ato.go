package detectors

import (
	"fmt"
	"time"

	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// ATO detects account-takeover signals: a payment card new to this user
// combined with a new device, country, or city. Clause order matters —
// new-card+new-device is checked before new-card+new-city.
func ATO(tx models.Transaction, h *history.History) Result {
	t0 := tx.Timestamp
	windowStart := t0.Add(-30 * 24 * time.Hour)

	var window []models.Transaction
	for _, p := range h.ByUser(tx.UserID) {
		if !p.Timestamp.Before(windowStart) && p.Timestamp.Before(t0) {
			window = append(window, p)
		}
	}
	if len(window) == 0 {
		return Result{}
	}

	knownCards := map[string]bool{}
	knownDevices := map[string]bool{}
	knownCountries := map[string]bool{}
	knownCities := map[string]bool{}
	for _, p := range window {
		knownCards[p.CardLast4] = true
		knownDevices[p.DeviceID] = true
		knownCountries[p.PickupCountry] = true
		knownCities[p.PickupCity] = true
	}

	isNewCard := !knownCards[tx.CardLast4]
	isNewDevice := !knownDevices[tx.DeviceID]
	isNewCountry := !knownCountries[tx.PickupCountry]
	isNewCity := !knownCities[tx.PickupCity]

	score := 0.0
	var rules []string

	switch {
	case isNewCard && isNewCountry:
		score = 85
		rules = append(rules, fmt.Sprintf("ATO_HIGH: New card ****%s + new country (%s)", tx.CardLast4, tx.PickupCountry))
	case isNewCard && isNewDevice:
		score = 70
		rules = append(rules, fmt.Sprintf("ATO_NEW_CARD_DEVICE: New card ****%s + new device", tx.CardLast4))
	case isNewCard && isNewCity:
		score = 65
		rules = append(rules, fmt.Sprintf("ATO_MODERATE: New card ****%s + new city (%s)", tx.CardLast4, tx.PickupCity))
	case isNewCard:
		score = 30
		rules = append(rules, fmt.Sprintf("ATO_NEW_CARD: New card ****%s for user %s", tx.CardLast4, tx.UserID))
	}

	if !isNewCard && isNewDevice && isNewCountry {
		if 50 > score {
			score = 50
		}
		rules = append(rules, fmt.Sprintf("ATO_NEW_DEVICE_COUNTRY: New device + new country (%s)", tx.PickupCountry))
	}

	if isNewCard {
		priorOnCard := 0
		for _, p := range h.ByCard(tx.CardLast4) {
			if p.UserID == tx.UserID {
				priorOnCard++
			}
		}
		// spec counts prior transactions on the new card plus the
		// current transaction itself.
		recentNewCardTxns := priorOnCard + 1
		if recentNewCardTxns >= 3 {
			score = capScore(score + 15)
			rules = append(rules, fmt.Sprintf("ATO_RAPID_USE: %d transactions on new card quickly", recentNewCardTxns))
		}
	}

	return Result{Score: score, Rules: rules}
}
