package detectors

import (
	"fmt"
	"time"

	"github.com/enterprise/fraud-risk-engine/internal/geo"
	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

const circularRouteKM = 0.5

// Collusion detects a driver/passenger pair riding together suspiciously
// often, with an extra boost for circular (pickup-near-dropoff) routes.
func Collusion(tx models.Transaction, h *history.History) Result {
	t0 := tx.Timestamp
	windowStart := t0.Add(-7 * 24 * time.Hour)

	pairCount := 0
	circularCount := 0
	for _, p := range h.ByPair(tx.UserID, tx.DriverID) {
		if !p.Timestamp.Before(windowStart) && !p.Timestamp.After(t0) {
			pairCount++
			routeDistance := geo.DistanceKM(p.PickupLat, p.PickupLng, p.DropoffLat, p.DropoffLng)
			if routeDistance < circularRouteKM {
				circularCount++
			}
		}
	}

	score := 0.0
	var rules []string

	switch {
	case pairCount >= 8:
		score = 80
		rules = append(rules, fmt.Sprintf("COLLUSION_HIGH: %d rides between %s and %s in 7 days", pairCount, tx.UserID, tx.DriverID))
	case pairCount >= 5:
		score = 40
		rules = append(rules, fmt.Sprintf("COLLUSION_MODERATE: %d rides between %s and %s in 7 days", pairCount, tx.UserID, tx.DriverID))
	}

	if circularCount >= 3 {
		score = capScore(score + 20)
		rules = append(rules, fmt.Sprintf("COLLUSION_CIRCULAR: %d circular routes (pickup~=dropoff)", circularCount))
	}

	currentDistance := geo.DistanceKM(tx.PickupLat, tx.PickupLng, tx.DropoffLat, tx.DropoffLng)
	if currentDistance < circularRouteKM && pairCount >= 3 {
		score = capScore(score + 15)
		rules = append(rules, fmt.Sprintf("COLLUSION_CIRCULAR_CURRENT: route distance only %.2fkm", currentDistance))
	}

	return Result{Score: score, Rules: rules}
}
