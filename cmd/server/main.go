package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/enterprise/fraud-risk-engine/internal/alerts"
	"github.com/enterprise/fraud-risk-engine/internal/api"
	"github.com/enterprise/fraud-risk-engine/internal/auth"
	"github.com/enterprise/fraud-risk-engine/internal/config"
	"github.com/enterprise/fraud-risk-engine/internal/ingestion"
	"github.com/enterprise/fraud-risk-engine/internal/ml"
	"github.com/enterprise/fraud-risk-engine/internal/models"
	"github.com/enterprise/fraud-risk-engine/internal/orchestrator"
	"github.com/enterprise/fraud-risk-engine/internal/queue"
	"github.com/enterprise/fraud-risk-engine/internal/repositories"
	"github.com/enterprise/fraud-risk-engine/internal/scoring"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.Server.Environment)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting fraud risk engine API server")

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
	accountRepo := repositories.NewAccountRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)

	modelStore := ml.NewStore()

	seed, _, err := txRepo.GetRecent(context.Background(), 1, 5000)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load history seed, starting cold")
	}

	scoringCfg := scoring.Config{
		LowRiskThreshold:  cfg.Risk.LowRiskThreshold,
		HighRiskThreshold: cfg.Risk.HighRiskThreshold,
	}

	orch := orchestrator.New(dereferenceTransactions(seed), modelStore, scoringCfg, log.Logger)

	ingestSvc := ingestion.NewIngestionService(txRepo, scoreRepo, auditRepo, streamClient, orch)

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

	server := api.NewServer(cfg, txRepo, scoreRepo, accountRepo, streamClient, ingestSvc, orch, modelStore, jwtManager, publisher)
	router := server.Router()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// dereferenceTransactions converts the repository's pointer slice into
// the value slice the orchestrator seeds its history from.
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
