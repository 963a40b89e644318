package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/enterprise/fraud-risk-engine/internal/repositories"
)

func (s *Server) dailySummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		date := time.Now().UTC()
		if d := c.Query("date"); d != "" {
			parsed, err := time.Parse("2006-01-02", d)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
				return
			}
			date = parsed
		}

		metrics, err := s.scoreRepo.GetDailySummary(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, metrics)
	}
}

func (s *Server) topRulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 10)
		since := time.Now().UTC().Add(-7 * 24 * time.Hour)

		rules, err := s.scoreRepo.TopTriggeredRules(c.Request.Context(), since, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rules})
	}
}

func (s *Server) getAccountRiskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := s.accountRepo.GetByUserID(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			status := http.StatusInternalServerError
			if err == repositories.ErrAccountProfileNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

func (s *Server) listAccountsByRiskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		riskLevel := c.Query("risk_level")
		if riskLevel == "" {
			riskLevel = "high_risk"
		}
		page := queryInt(c, "page", 1)
		pageSize := queryInt(c, "page_size", 20)

		profiles, total, err := s.accountRepo.ListByRiskLevel(c.Request.Context(), riskLevel, page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": profiles, "pagination": gin.H{"page": page, "page_size": pageSize, "total": total}})
	}
}
