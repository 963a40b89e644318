package detectors

import (
	"fmt"
	"math"
	"sort"

	"github.com/enterprise/fraud-risk-engine/internal/geo"
	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// Geographic detects impossible or suspicious travel by comparing the
// current pickup location against the user's five most recent prior
// transactions.
func Geographic(tx models.Transaction, h *history.History) Result {
	t0 := tx.Timestamp

	prior := make([]models.Transaction, 0)
	for _, p := range h.ByUser(tx.UserID) {
		if p.Timestamp.Before(t0) {
			prior = append(prior, p)
		}
	}
	if len(prior) == 0 {
		return Result{}
	}

	sort.Slice(prior, func(i, j int) bool { return prior[i].Timestamp.After(prior[j].Timestamp) })
	if len(prior) > 5 {
		prior = prior[:5]
	}

	maxScore := 0.0
	var rules []string

	for _, p := range prior {
		dtH := t0.Sub(p.Timestamp).Hours()
		if dtH <= 0 {
			continue
		}
		d := geo.DistanceKM(p.PickupLat, p.PickupLng, tx.PickupLat, tx.PickupLng)
		v := d / dtH

		switch {
		case v > 900 && d > 100:
			maxScore = math.Max(maxScore, 100)
			rules = append(rules, fmt.Sprintf("GEO_IMPOSSIBLE_TRAVEL: %.0fkm in %.1fh (%.0fkm/h) from %s to %s", d, dtH, v, p.PickupCity, tx.PickupCity))
		case v > 500 && d > 100:
			maxScore = math.Max(maxScore, 70)
			rules = append(rules, fmt.Sprintf("GEO_SUSPICIOUS_TRAVEL: %.0fkm in %.1fh (%.0fkm/h)", d, dtH, v))
		case p.PickupCountry != tx.PickupCountry && dtH < 3:
			maxScore = math.Max(maxScore, 80)
			rules = append(rules, fmt.Sprintf("GEO_COUNTRY_CHANGE: %s to %s in %.1fh", p.PickupCountry, tx.PickupCountry, dtH))
		}
	}

	return Result{Score: capScore(maxScore), Rules: rules}
}
