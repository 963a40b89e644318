// Package orchestrator runs the seven detectors against the running
// transaction history in the fixed order spec.md §4.1 names, aggregates
// and hybrid-combines their scores, and emits a RiskAssessment per
// transaction. It owns the one History instance a deployment scores
// against, so detectors never see a transaction before the ones that
// precede it in processing order.
package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/enterprise/fraud-risk-engine/internal/detectors"
	"github.com/enterprise/fraud-risk-engine/internal/history"
	"github.com/enterprise/fraud-risk-engine/internal/hybrid"
	"github.com/enterprise/fraud-risk-engine/internal/ml"
	"github.com/enterprise/fraud-risk-engine/internal/models"
	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

// ErrBadTimestamp is returned for a transaction whose timestamp cannot
// be scored against the running history — per spec.md §7, this is
// fatal for that one transaction, not for the batch.
var ErrBadTimestamp = errors.New("orchestrator: transaction timestamp is zero")

// orderedDetectors fixes the seven-detector invocation order named in
// spec.md §4.1. Order matters only for the triggered-rule listing's
// presentation; each detector's own score is independent of the others.
var orderedDetectors = []struct {
	name string
	fn   detectors.Func
}{
	{"velocity", detectors.Velocity},
	{"geographic", detectors.Geographic},
	{"amount", detectors.Amount},
	{"card_testing", detectors.CardTesting},
	{"collusion", detectors.Collusion},
	{"ato", detectors.ATO},
	{"fraud_ring", detectors.FraudRing},
}

// Orchestrator holds the running history and model store a deployment
// scores transactions against.
type Orchestrator struct {
	history *history.History
	models  *ml.Store
	cfg     scoring.Config
	log     zerolog.Logger
}

// New builds an Orchestrator seeded with prior transactions (may be
// nil/empty for a cold start) and backed by the given model store.
func New(seed []models.Transaction, store *ml.Store, cfg scoring.Config, log zerolog.Logger) *Orchestrator {
	h := history.New()
	if len(seed) > 0 {
		h = history.Seed(seed)
	}
	return &Orchestrator{history: h, models: store, cfg: cfg, log: log}
}

// Score evaluates one transaction against the current history, appends
// the transaction to history, and returns its assessment. Returns
// ErrBadTimestamp without mutating history if tx.Timestamp is zero.
func (o *Orchestrator) Score(tx models.Transaction) (*models.RiskAssessment, error) {
	assessment, err := o.evaluate(tx)
	if err != nil {
		return nil, err
	}
	o.history.Append(tx)
	return assessment, nil
}

// ScoreDryRun evaluates a transaction the same way Score does but never
// mutates the running history — a backtest/what-if scoring path per
// SPEC_FULL.md's supplemented dry-run feature.
func (o *Orchestrator) ScoreDryRun(tx models.Transaction) (*models.RiskAssessment, error) {
	return o.evaluate(tx)
}

// ScoreBatch scores an ordered slice of transactions, feeding each one's
// assessment from the history built up by the ones before it. A
// transaction with a bad timestamp is skipped (its error logged) and
// scoring continues with the rest of the batch.
func (o *Orchestrator) ScoreBatch(batch []models.Transaction) []*models.RiskAssessment {
	out := make([]*models.RiskAssessment, 0, len(batch))
	for _, tx := range batch {
		assessment, err := o.Score(tx)
		if err != nil {
			o.log.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("skipping transaction with bad timestamp")
			continue
		}
		out = append(out, assessment)
	}
	return out
}

func (o *Orchestrator) evaluate(tx models.Transaction) (*models.RiskAssessment, error) {
	if tx.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: transaction_id=%s", ErrBadTimestamp, tx.TransactionID)
	}

	var scores models.IndicatorScores
	var triggered []string
	for _, d := range orderedDetectors {
		res := d.fn(tx, o.history)
		setScore(&scores, d.name, res.Score)
		triggered = append(triggered, res.Rules...)
	}

	rule := scoring.Aggregate(scores, o.cfg)

	features := scoring.ExtractFeatures(tx, scores)
	mlScore, available := ml.Predict(o.models, features)
	combined := hybrid.Combine(rule, mlScore, available, o.cfg)

	assessment := models.NewRiskAssessment(tx.TransactionID, scores)
	assessment.RiskScore = combined.Score
	assessment.RiskLevel = combined.RiskLevel
	assessment.MLScore = combined.MLScore
	assessment.TriggeredRules = triggered
	assessment.ProcessedAt = time.Now().UTC()

	o.log.Debug().
		Str("transaction_id", tx.TransactionID).
		Int("risk_score", assessment.RiskScore).
		Str("risk_level", assessment.RiskLevel).
		Bool("used_model", combined.UsedModel).
		Msg("transaction scored")

	return assessment, nil
}

func setScore(scores *models.IndicatorScores, name string, value float64) {
	switch name {
	case "velocity":
		scores.Velocity = value
	case "geographic":
		scores.Geographic = value
	case "amount":
		scores.Amount = value
	case "card_testing":
		scores.CardTesting = value
	case "collusion":
		scores.Collusion = value
	case "ato":
		scores.ATO = value
	case "fraud_ring":
		scores.FraudRing = value
	}
}

// History exposes the running history for repository/persistence
// callers that need to inspect or snapshot it (e.g. the batch pipeline
// writing processed transactions through).
func (o *Orchestrator) History() *history.History {
	return o.history
}
