package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	limited := BodyLimitMiddleware(s.maxBodyBytes)

	nlp := s.router.Group("/api/nlp", limited)
	{
		nlp.POST("/grammar", s.auditNLP(nlpcloud.TaskGrammar), s.handleGrammar())
		nlp.POST("/entities", s.auditNLP(nlpcloud.TaskEntities), s.handleEntities())
		nlp.POST("/summarize", s.auditNLP(nlpcloud.TaskSummarize), s.handleSummarize())
		nlp.POST("/keywords", s.auditNLP(nlpcloud.TaskKeywords), s.handleKeywords())
		nlp.POST("/classify", s.auditNLP(nlpcloud.TaskClassify), s.handleClassify)
	}

	patientReports := s.router.Group("/api/reports", limited)
	{
		patientReports.POST("", s.handleCreateReport)
		patientReports.GET("", s.handleListReports)
		patientReports.GET("/:id", s.handleGetReport)
		patientReports.PUT("/:id", s.handleUpdateReport)
		patientReports.DELETE("/:id", s.handleDeleteReport)
	}

	s.router.GET("/api/audit", s.handleListAudit)
	s.router.POST("/analyze", limited, s.auditNLP(nlpcloud.TaskClassify), s.handleAnalyze)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	s.router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, messageNotFound)
	})
}

// handleHealth reports liveness, and the backing store when one is configured
func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
