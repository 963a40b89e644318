// Package pipeline runs the batch scoring loop described in
// SPEC_FULL.md section C.3: drain the transaction stream (standing in
// for original_source's CSV-driven simulator) in configured-size
// batches, score each batch through the orchestrator in a single call
// so in-batch ordering holds, persist, and forward flagged assessments
// to the alert publisher. Shared by cmd/worker (a standalone process
// running the loop continuously) and internal/api (the same loop,
// started/stopped over HTTP).
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/enterprise/fraud-risk-engine/internal/alerts"
	"github.com/enterprise/fraud-risk-engine/internal/config"
	"github.com/enterprise/fraud-risk-engine/internal/models"
	"github.com/enterprise/fraud-risk-engine/internal/orchestrator"
	"github.com/enterprise/fraud-risk-engine/internal/queue"
	"github.com/enterprise/fraud-risk-engine/internal/repositories"
)

// Status is the pipeline's current lifecycle state, mirroring
// original_source/app/api/pipeline.py's status payload.
type Status struct {
	State     string `json:"status"`
	Processed int    `json:"processed"`
	Batches   int    `json:"batches"`
}

// Runner owns the pipeline's running state and the dependencies its
// loop needs on every tick.
type Runner struct {
	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	processed int
	batches   int
	state     string

	stream    *queue.RedisStreamClient
	txRepo    *repositories.TransactionRepository
	scoreRepo *repositories.RiskScoreRepository
	orch      *orchestrator.Orchestrator
	publisher *alerts.Publisher
	cfg       config.PipelineConfig
}

// NewRunner builds a Runner in the stopped state.
func NewRunner(
	stream *queue.RedisStreamClient,
	txRepo *repositories.TransactionRepository,
	scoreRepo *repositories.RiskScoreRepository,
	orch *orchestrator.Orchestrator,
	publisher *alerts.Publisher,
	cfg config.PipelineConfig,
) *Runner {
	return &Runner{state: "stopped", stream: stream, txRepo: txRepo, scoreRepo: scoreRepo, orch: orch, publisher: publisher, cfg: cfg}
}

// Start launches the batch loop in a background goroutine. A no-op if
// already running.
func (r *Runner) Start() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return r.snapshot()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.running = true
	r.state = "running"

	go r.loop(ctx)

	return r.snapshot()
}

// Stop cancels the running loop, if any.
func (r *Runner) Stop() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running && r.cancel != nil {
		r.cancel()
	}
	r.running = false
	r.state = "stopped"
	return r.snapshot()
}

// Status reports the loop's current counters.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Reset stops the loop (if running) and zeroes its counters, matching
// original_source's /reset endpoint.
func (r *Runner) Reset() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running && r.cancel != nil {
		r.cancel()
	}
	r.running = false
	r.processed = 0
	r.batches = 0
	r.state = "stopped"
	return r.snapshot()
}

// Run blocks, running the batch loop until ctx is cancelled — the
// shape a standalone worker process drives directly rather than
// through Start/Stop.
func (r *Runner) Run(ctx context.Context) {
	r.mu.Lock()
	r.running = true
	r.state = "running"
	r.mu.Unlock()

	r.loop(ctx)

	r.mu.Lock()
	r.running = false
	r.state = "stopped"
	r.mu.Unlock()
}

func (r *Runner) snapshot() Status {
	return Status{State: r.state, Processed: r.processed, Batches: r.batches}
}

func (r *Runner) loop(ctx context.Context) {
	interval := time.Duration(r.cfg.BatchIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consumerName := "pipeline-" + time.Now().UTC().Format("150405.000000000")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.processOneBatch(ctx, consumerName)
		}
	}
}

func (r *Runner) processOneBatch(ctx context.Context, consumerName string) {
	messages, err := r.stream.Consume(ctx, consumerName, int64(r.cfg.BatchSize), time.Second)
	if err != nil {
		log.Error().Err(err).Msg("pipeline: failed to consume batch")
		return
	}
	if len(messages) == 0 {
		return
	}

	batch := make([]models.Transaction, 0, len(messages))
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		batch = append(batch, *m.Event)
		ids = append(ids, m.ID)
	}

	assessments := r.orch.ScoreBatch(batch)

	ptrs := make([]*models.Transaction, len(batch))
	for i := range batch {
		ptrs[i] = &batch[i]
	}
	if err := r.txRepo.CreateBatch(ctx, ptrs); err != nil {
		log.Error().Err(err).Msg("pipeline: failed to persist batch transactions")
	}

	for _, a := range assessments {
		if err := r.scoreRepo.Create(ctx, a); err != nil {
			log.Error().Err(err).Str("transaction_id", a.TransactionID).Msg("pipeline: failed to persist assessment")
		}
		if r.publisher != nil {
			r.publisher.PublishIfFlagged(a)
		}
	}

	if err := r.stream.AcknowledgeBatch(ctx, ids); err != nil {
		log.Warn().Err(err).Msg("pipeline: failed to acknowledge batch")
	}

	r.mu.Lock()
	r.processed += len(assessments)
	r.batches++
	r.mu.Unlock()
}
