package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/audit"
	"github.com/ajitpratap0/clinicalnlp/internal/reports"
	"github.com/ajitpratap0/clinicalnlp/internal/validation"
)

const messageReportNotFound = "Report not found"

// ReportRequest is the writable part of a patient report
type ReportRequest struct {
	PatientName string `json:"patientName"`
	ReportText  string `json:"reportText"`
}

func (r ReportRequest) toReport() *reports.Report {
	return &reports.Report{
		PatientName: validation.SanitizeInput(r.PatientName),
		ReportText:  validation.SanitizeInput(r.ReportText),
	}
}

func (s *Server) handleCreateReport(c *gin.Context) {
	report, ok := bindReport(c)
	if !ok {
		return
	}

	err := s.reports.Create(c.Request.Context(), report)
	s.auditReport(c, audit.EventTypeReportCreated, report.ID, err)
	if err != nil {
		respondInternalError(c, err)
		return
	}

	log.Info().Str("request_id", requestID(c)).Int64("report_id", report.ID).Msg("Report created")
	respondOK(c, report)
}

func (s *Server) handleListReports(c *gin.Context) {
	all, err := s.reports.List(c.Request.Context())
	s.auditReport(c, audit.EventTypeReportsListed, 0, err)
	if err != nil {
		respondInternalError(c, err)
		return
	}

	respondOK(c, all)
}

func (s *Server) handleGetReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := s.reports.Get(c.Request.Context(), id)
	s.auditReport(c, audit.EventTypeReportViewed, id, err)
	if err != nil {
		respondReportError(c, err)
		return
	}

	respondOK(c, report)
}

func (s *Server) handleUpdateReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, ok := bindReport(c)
	if !ok {
		return
	}

	updated, err := s.reports.Update(c.Request.Context(), id, report)
	s.auditReport(c, audit.EventTypeReportUpdated, id, err)
	if err != nil {
		respondReportError(c, err)
		return
	}

	respondOK(c, updated)
}

func (s *Server) handleDeleteReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	err := s.reports.Delete(c.Request.Context(), id)
	s.auditReport(c, audit.EventTypeReportDeleted, id, err)
	if err != nil {
		respondReportError(c, err)
		return
	}

	log.Info().Str("request_id", requestID(c)).Int64("report_id", id).Msg("Report deleted")
	respondOK(c, nil)
}

func bindReport(c *gin.Context) (*reports.Report, bool) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return nil, false
	}

	report := req.toReport()
	if err := reports.Validate(report); err != nil {
		respondInputError(c, err)
		return nil, false
	}
	return report, true
}

func reportID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "id: must be a positive integer")
		return 0, false
	}
	return id, true
}

func respondReportError(c *gin.Context, err error) {
	if errors.Is(err, reports.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, messageReportNotFound)
		return
	}
	respondInternalError(c, err)
}
