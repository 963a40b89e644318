package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) startPipelineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.pipeline.Start())
	}
}

func (s *Server) stopPipelineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.pipeline.Stop())
	}
}

func (s *Server) pipelineStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.pipeline.Status())
	}
}

func (s *Server) resetPipelineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.pipeline.Reset())
	}
}
