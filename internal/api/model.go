package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/enterprise/fraud-risk-engine/internal/ml"
)

// minTrainableAssessments mirrors original_source/app/api/ml.py's "need
// at least 50 processed transactions" guard.
const minTrainableAssessments = 50

// trainModelHandler trains a fresh RandomForest on every scored
// transaction currently in storage and, on success, swaps it in as the
// active model.
func (s *Server) trainModelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, labels, err := s.scoreRepo.GetTrainingData(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if len(rows) < minTrainableAssessments {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "not enough scored transactions to train",
				"have":  len(rows),
				"need":  minTrainableAssessments,
			})
			return
		}

		bundle, metrics, err := ml.Train(rows, labels)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		s.models.Swap(bundle)

		c.JSON(http.StatusOK, gin.H{
			"status":  "trained",
			"metrics": metrics,
		})
	}
}

// modelInfoHandler reports whether a model is active and, if so, the
// metrics it was trained with.
func (s *Server) modelInfoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		bundle := s.models.Get()
		if bundle == nil {
			c.JSON(http.StatusOK, gin.H{"status": "absent", "message": "no trained model; POST /api/v1/model/train first"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  bundle.State,
			"metrics": bundle.Metrics,
		})
	}
}
