package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/audit"
	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
)

func requestInfo(c *gin.Context) audit.RequestInfo {
	return audit.RequestInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: requestID(c),
	}
}

// auditNLP records every call to an NLP task once the handler has responded.
// Only the caller-safe error message is stored.
func (s *Server) auditNLP(task nlpcloud.TaskKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if !s.audit.Enabled() {
			return
		}
		err := s.audit.LogNLPRequest(c.Request.Context(), task.String(), requestInfo(c),
			c.Writer.Status(), time.Since(start), c.GetString(errorMessageKey))
		if err != nil {
			log.Warn().Err(err).Str("request_id", requestID(c)).Msg("Failed to record NLP audit event")
		}
	}
}

// auditReport records an access to patient reports. Failures to record are
// logged and do not fail the request.
func (s *Server) auditReport(c *gin.Context, eventType audit.EventType, id int64, opErr error) {
	if !s.audit.Enabled() {
		return
	}

	resource := ""
	if id > 0 {
		resource = strconv.FormatInt(id, 10)
	}
	if err := s.audit.LogReportAccess(c.Request.Context(), eventType, resource, requestInfo(c), opErr); err != nil {
		log.Warn().Err(err).Str("request_id", requestID(c)).Msg("Failed to record report audit event")
	}
}

// handleListAudit returns recent audit events, newest first
func (s *Server) handleListAudit(c *gin.Context) {
	filters := audit.QueryFilters{
		EventType: audit.EventType(c.Query("event_type")),
		Resource:  c.Query("resource"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit: must be a positive integer")
			return
		}
		filters.Limit = limit
	}

	events, err := s.audit.Query(c.Request.Context(), filters)
	if err != nil {
		respondInternalError(c, err)
		return
	}

	respondOK(c, events)
}
