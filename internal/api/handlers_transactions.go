package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/enterprise/fraud-risk-engine/internal/ingestion"
	"github.com/enterprise/fraud-risk-engine/internal/repositories"
)

func (s *Server) ingestTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ingestion.TransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := s.ingestion.IngestTransaction(c.Request.Context(), &req, c.GetString("request_id"))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, resp)
	}
}

func (s *Server) ingestBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ingestion.BatchTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := s.ingestion.IngestBatch(c.Request.Context(), &req, c.GetString("request_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) getTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, err := s.ingestion.GetTransaction(c.Request.Context(), c.Param("id"))
		if err != nil {
			status := http.StatusInternalServerError
			if err == repositories.ErrTransactionNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}

func (s *Server) getAssessmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := s.ingestion.GetAssessment(c.Request.Context(), c.Param("id"))
		if err != nil {
			status := http.StatusInternalServerError
			if err == repositories.ErrRiskScoreNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func (s *Server) getUserTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := queryInt(c, "page", 1)
		pageSize := queryInt(c, "page_size", 20)

		txs, total, err := s.ingestion.GetTransactionsByUser(c.Request.Context(), c.Param("user_id"), page, pageSize, nil, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": txs, "pagination": gin.H{"page": page, "page_size": pageSize, "total": total}})
	}
}

func (s *Server) getRecentTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := queryInt(c, "page", 1)
		pageSize := queryInt(c, "page_size", 20)

		txs, total, err := s.txRepo.GetRecent(c.Request.Context(), page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": txs, "pagination": gin.H{"page": page, "page_size": pageSize, "total": total}})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
