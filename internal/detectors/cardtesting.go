package detectors

import (
	"fmt"

	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

var smallAmountThresholds = map[string]float64{
	models.CurrencyNGN: 300,
	models.CurrencyKES: 150,
	models.CurrencyZAR: 30,
}

func smallThresholdFor(currency string) float64 {
	if t, ok := smallAmountThresholds[currency]; ok {
		return t
	}
	return 300
}

// CardTesting flags clusters of small probing transactions on a card
// followed by a disproportionately large one.
func CardTesting(tx models.Transaction, h *history.History) Result {
	t0 := tx.Timestamp

	var cardTxns []models.Transaction
	for _, p := range h.ByCard(tx.CardLast4) {
		diffHours := t0.Sub(p.Timestamp).Hours()
		if diffHours > 0 && diffHours <= 24 {
			cardTxns = append(cardTxns, p)
		}
	}
	if len(cardTxns) == 0 {
		return Result{}
	}

	smallThreshold := smallThresholdFor(tx.Currency)

	var small []models.Transaction
	for _, p := range cardTxns {
		if p.Amount < smallThreshold {
			small = append(small, p)
		}
	}
	numSmall := len(small)

	if numSmall >= 3 {
		var sum float64
		for _, p := range small {
			sum += p.Amount
		}
		avgSmall := 1.0
		if numSmall > 0 {
			avgSmall = sum / float64(numSmall)
		}

		switch {
		case tx.Amount > avgSmall*10:
			return Result{Score: 95, Rules: []string{fmt.Sprintf("CARD_TESTING_CONFIRMED: %d small txns (avg=%.0f) then large=%.0f", numSmall, avgSmall, tx.Amount)}}
		case tx.Amount > avgSmall*5:
			return Result{Score: 70, Rules: []string{fmt.Sprintf("CARD_TESTING_LIKELY: %d small txns then medium-large=%.0f", numSmall, tx.Amount)}}
		default:
			return Result{Score: 50, Rules: []string{fmt.Sprintf("CARD_TESTING_PROBING: %d small transactions from card ****%s", numSmall, tx.CardLast4)}}
		}
	}

	if numSmall >= 2 && tx.Amount > smallThreshold*10 {
		return Result{Score: 40, Rules: []string{fmt.Sprintf("CARD_TESTING_POSSIBLE: %d small txns before large=%.0f", numSmall, tx.Amount)}}
	}

	return Result{}
}
