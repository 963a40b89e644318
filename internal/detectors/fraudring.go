package detectors

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// FraudRing detects a group of distinct users transacting through one
// shared device in a short window, with boosts for amount clustering and
// time concentration.
func FraudRing(tx models.Transaction, h *history.History) Result {
	t0 := tx.Timestamp
	windowStart := t0.Add(-7 * 24 * time.Hour)

	var subset []models.Transaction
	users := map[string]bool{tx.UserID: true}
	for _, p := range h.ByDevice(tx.DeviceID) {
		if !p.Timestamp.Before(windowStart) && !p.Timestamp.After(t0) {
			subset = append(subset, p)
			users[p.UserID] = true
		}
	}
	numUsers := len(users)

	score := 0.0
	var rules []string

	switch {
	case numUsers >= 4:
		score = 90
		rules = append(rules, fmt.Sprintf("FRAUD_RING_HIGH: %d users sharing device %s", numUsers, tx.DeviceID))
	case numUsers == 3:
		score = 70
		rules = append(rules, fmt.Sprintf("FRAUD_RING_MODERATE: %d users sharing device %s", numUsers, tx.DeviceID))
	case numUsers == 2:
		score = 20
		rules = append(rules, fmt.Sprintf("FRAUD_RING_LOW: %d users sharing device", numUsers))
	}

	if numUsers >= 3 && len(subset) >= 1 {
		var sum float64
		for _, p := range subset {
			sum += p.Amount
		}
		avgAmount := sum / float64(len(subset))
		if avgAmount > 0 {
			similar := 0
			for _, p := range subset {
				if math.Abs(p.Amount-avgAmount)/avgAmount < 0.2 {
					similar++
				}
			}
			ratio := float64(similar) / float64(len(subset))
			if ratio > 0.7 {
				score = capScore(score + 20)
				rules = append(rules, fmt.Sprintf("FRAUD_RING_SIMILAR_AMOUNTS: %.0f%% of transactions within 20%% of avg=%.0f", ratio*100, avgAmount))
			}
		}
	}

	if numUsers >= 3 && len(subset) >= 5 {
		times := make([]time.Time, 0, len(subset))
		for _, p := range subset {
			times = append(times, p.Timestamp)
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		span := times[len(times)-1].Sub(times[0]).Hours()
		if span < 24 {
			score = capScore(score + 15)
			rules = append(rules, fmt.Sprintf("FRAUD_RING_TIME_CLUSTER: %d transactions in %.1fh", len(times), span))
		}
	}

	return Result{Score: score, Rules: rules}
}
