// Package api is the thin Gin HTTP surface over the scoring core:
// submit transactions, fetch assessments, drive the batch pipeline
// lifecycle, and train/inspect the supervised model. Per spec.md
// section 1 the HTTP surface is an external collaborator, not a
// specified component, so this package stays deliberately thin.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enterprise/fraud-risk-engine/internal/alerts"
	"github.com/enterprise/fraud-risk-engine/internal/auth"
	"github.com/enterprise/fraud-risk-engine/internal/config"
	"github.com/enterprise/fraud-risk-engine/internal/ingestion"
	"github.com/enterprise/fraud-risk-engine/internal/ml"
	"github.com/enterprise/fraud-risk-engine/internal/orchestrator"
	"github.com/enterprise/fraud-risk-engine/internal/pipeline"
	"github.com/enterprise/fraud-risk-engine/internal/queue"
	"github.com/enterprise/fraud-risk-engine/internal/repositories"
)

// Server holds every dependency the HTTP handlers need.
type Server struct {
	cfg *config.Config

	txRepo      *repositories.TransactionRepository
	scoreRepo   *repositories.RiskScoreRepository
	accountRepo *repositories.AccountRepository

	ingestion *ingestion.IngestionService
	models    *ml.Store
	jwt       *auth.JWTManager
	pipeline  *pipeline.Runner
}

// NewServer wires a Server from its constructed dependencies.
func NewServer(
	cfg *config.Config,
	txRepo *repositories.TransactionRepository,
	scoreRepo *repositories.RiskScoreRepository,
	accountRepo *repositories.AccountRepository,
	stream *queue.RedisStreamClient,
	ingestionSvc *ingestion.IngestionService,
	orch *orchestrator.Orchestrator,
	models *ml.Store,
	jwtManager *auth.JWTManager,
	publisher *alerts.Publisher,
) *Server {
	return &Server{
		cfg:         cfg,
		txRepo:      txRepo,
		scoreRepo:   scoreRepo,
		accountRepo: accountRepo,
		ingestion:   ingestionSvc,
		models:      models,
		jwt:         jwtManager,
		pipeline:    pipeline.NewRunner(stream, txRepo, scoreRepo, orch, publisher, cfg.Pipeline),
	}
}

// Router builds the Gin engine: middleware, health check, and the
// versioned route groups.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())
	router.Use(rateLimitMiddleware(newRateLimiter(100, time.Minute)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	v1 := router.Group("/api/v1")

	txRoutes := v1.Group("/transactions")
	{
		txRoutes.POST("", s.ingestTransactionHandler())
		txRoutes.POST("/batch", s.ingestBatchHandler())
		txRoutes.GET("/recent", s.getRecentTransactionsHandler())
		txRoutes.GET("/:id", s.getTransactionHandler())
		txRoutes.GET("/user/:user_id", s.getUserTransactionsHandler())
	}

	riskRoutes := v1.Group("/risk")
	{
		riskRoutes.GET("/assessments/:id", s.getAssessmentHandler())
		riskRoutes.GET("/summary", s.dailySummaryHandler())
		riskRoutes.GET("/rules/top", s.topRulesHandler())
		riskRoutes.GET("/accounts/:user_id", s.getAccountRiskHandler())
		riskRoutes.GET("/accounts", s.listAccountsByRiskHandler())
	}

	adminRoutes := v1.Group("")
	adminRoutes.Use(auth.AuthMiddleware(s.jwt), auth.RoleMiddleware("admin"))
	{
		adminRoutes.POST("/model/train", s.trainModelHandler())
		adminRoutes.GET("/model/info", s.modelInfoHandler())

		adminRoutes.POST("/pipeline/start", s.startPipelineHandler())
		adminRoutes.POST("/pipeline/stop", s.stopPipelineHandler())
		adminRoutes.GET("/pipeline/status", s.pipelineStatusHandler())
		adminRoutes.POST("/pipeline/reset", s.resetPipelineHandler())
	}

	return router
}
