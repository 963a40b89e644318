package detectors

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// meanStddev computes the population mean and standard deviation
// (divide by N, not N-1), substituting 1 for a zero-variance sample.
func meanStddev(values []float64) (mean, stddev float64) {
	var variance float64
	mean, variance = stat.PopMeanVariance(values, nil)
	if variance > 0 {
		stddev = stat.PopStdDev(values, nil)
	} else {
		stddev = 1
	}
	return mean, stddev
}

// Amount flags transactions whose size is a statistical outlier against
// the user's own history, falling back to currency-wide population
// statistics when personal history is thin.
func Amount(tx models.Transaction, h *history.History) Result {
	t0 := tx.Timestamp

	var userAmounts []float64
	for _, p := range h.ByUser(tx.UserID) {
		if p.Currency == tx.Currency && p.Timestamp.Before(t0) {
			userAmounts = append(userAmounts, p.Amount)
		}
	}

	usingPopulation := false
	amounts := userAmounts
	if len(userAmounts) < 5 {
		var currencyAmounts []float64
		for _, p := range h.All() {
			if p.Currency == tx.Currency {
				currencyAmounts = append(currencyAmounts, p.Amount)
			}
		}
		if len(currencyAmounts) < 10 {
			return Result{}
		}
		amounts = currencyAmounts
		usingPopulation = true
	}

	mean, stddev := meanStddev(amounts)
	z := 0.0
	if stddev > 0 {
		z = (tx.Amount - mean) / stddev
	}

	highThreshold, medThreshold, lowThreshold := 3.0, 2.0, 1.5
	if usingPopulation {
		highThreshold, medThreshold, lowThreshold = 4.0, 3.0, 2.5
	}

	switch {
	case z > highThreshold:
		return Result{Score: 80, Rules: []string{fmt.Sprintf("AMOUNT_EXTREME: z-score=%.1f, amount=%.0f vs avg=%.0f", z, tx.Amount, mean)}}
	case z > medThreshold:
		return Result{Score: 50, Rules: []string{fmt.Sprintf("AMOUNT_HIGH: z-score=%.1f, amount=%.0f vs avg=%.0f", z, tx.Amount, mean)}}
	case z > lowThreshold:
		return Result{Score: 30, Rules: []string{fmt.Sprintf("AMOUNT_ELEVATED: z-score=%.1f, amount=%.0f vs avg=%.0f", z, tx.Amount, mean)}}
	default:
		return Result{}
	}
}
