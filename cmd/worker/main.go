package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/enterprise/fraud-risk-engine/internal/alerts"
	"github.com/enterprise/fraud-risk-engine/internal/config"
	"github.com/enterprise/fraud-risk-engine/internal/ml"
	"github.com/enterprise/fraud-risk-engine/internal/models"
	"github.com/enterprise/fraud-risk-engine/internal/orchestrator"
	"github.com/enterprise/fraud-risk-engine/internal/pipeline"
	"github.com/enterprise/fraud-risk-engine/internal/queue"
	"github.com/enterprise/fraud-risk-engine/internal/repositories"
	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

// cmd/worker runs the batch scoring loop as a standalone process,
// draining the transaction stream continuously rather than waiting for
// an operator to hit the API server's /pipeline/start endpoint.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("batch_size", cfg.Pipeline.BatchSize).
		Msg("starting fraud risk engine batch worker")

	db, err := repositories.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	streamClient, err := queue.NewRedisStreamClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis stream")
	}
	defer streamClient.Close()

	txRepo := repositories.NewTransactionRepository(db)
	scoreRepo := repositories.NewRiskScoreRepository(db)

	seed, _, err := txRepo.GetRecent(context.Background(), 1, 5000)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load history seed, starting cold")
	}

	scoringCfg := scoring.Config{
		LowRiskThreshold:  cfg.Risk.LowRiskThreshold,
		HighRiskThreshold: cfg.Risk.HighRiskThreshold,
	}

	orch := orchestrator.New(dereferenceTransactions(seed), ml.NewStore(), scoringCfg, log.Logger)

	var publisher *alerts.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = alerts.NewPublisher(cfg.Kafka)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to kafka, alerts disabled")
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	runner := pipeline.NewRunner(streamClient, txRepo, scoreRepo, orch, publisher, cfg.Pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	<-sigCh
	log.Info().Msg("received shutdown signal")
	cancel()
	<-done

	log.Info().Msg("worker shutdown complete")
}

func dereferenceTransactions(txs []*models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = *tx
	}
	return out
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
