package detectors

import (
	"fmt"
	"time"

	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

func countInWindow(txs []models.Transaction, t0 time.Time, window time.Duration) int {
	start := t0.Add(-window)
	count := 0
	for _, tx := range txs {
		if !tx.Timestamp.Before(start) && !tx.Timestamp.After(t0) {
			count++
		}
	}
	return count
}

// Velocity counts, over the running history, how many prior transactions
// share the same user, card, or device within fixed time windows ending
// at the current transaction's timestamp.
func Velocity(tx models.Transaction, h *history.History) Result {
	t0 := tx.Timestamp

	user1h := countInWindow(h.ByUser(tx.UserID), t0, time.Hour)
	user24h := countInWindow(h.ByUser(tx.UserID), t0, 24*time.Hour)
	card1h := countInWindow(h.ByCard(tx.CardLast4), t0, time.Hour)
	card2h := countInWindow(h.ByCard(tx.CardLast4), t0, 2*time.Hour)
	device1h := countInWindow(h.ByDevice(tx.DeviceID), t0, time.Hour)

	m1 := maxInt(user1h, card1h, device1h)
	// m2 intentionally reuses user1h inside the 2h maximum instead of a
	// true 2h user count — preserved for parity with the source this
	// detector is modeled on, flagged for review rather than "fixed".
	m2 := maxInt(card2h, user1h)

	var scores []float64
	var rules []string

	switch {
	case m1 >= 10:
		scores = append(scores, 100)
		rules = append(rules, fmt.Sprintf("VELOCITY_EXTREME: %d transactions in 1h", m1))
	case m1 >= 8:
		scores = append(scores, 80)
		rules = append(rules, fmt.Sprintf("VELOCITY_VERY_HIGH: %d transactions in 1h", m1))
	case m1 >= 6:
		scores = append(scores, 50)
		rules = append(rules, fmt.Sprintf("VELOCITY_HIGH: %d transactions in 1h", m1))
	case m1 >= 3:
		scores = append(scores, 20)
		rules = append(rules, fmt.Sprintf("VELOCITY_MODERATE: %d transactions in 1h", m1))
	}

	if m2 >= 10 {
		scores = append(scores, 90)
		rules = append(rules, fmt.Sprintf("VELOCITY_2H_HIGH: %d transactions in 2h", m2))
	}

	if user24h >= 15 {
		scores = append(scores, 60)
		rules = append(rules, fmt.Sprintf("VELOCITY_24H_HIGH: %d transactions in 24h", user24h))
	}

	if len(scores) == 0 {
		return Result{}
	}

	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	return Result{Score: capScore(max), Rules: rules}
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
