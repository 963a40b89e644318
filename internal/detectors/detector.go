// Package detectors implements the seven independent fraud indicators.
// Each detector inspects the current transaction plus the running
// history and returns a score in [0, 100] plus the rule strings that
// fired. Detectors never error; a semantic gap (no eligible history)
// yields (0, nil), per spec.md's error-handling design (HistoryGap is
// not an error).
package detectors

import (
	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/models"
)

// Result is what one detector returns for one transaction.
type Result struct {
	Score float64
	Rules []string
}

func capScore(score float64) float64 {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// Func is the common detector signature: the current transaction and
// the running history of everything observed strictly before it.
type Func func(tx models.Transaction, h *history.History) Result
