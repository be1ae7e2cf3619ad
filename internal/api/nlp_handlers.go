package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
	"github.com/ajitpratap0/clinicalnlp/internal/validation"
)

// DefaultLabels are used by the form-based /analyze endpoint
var DefaultLabels = []string{"space", "sport", "business", "journalism", "politics"}

// ClinicalNoteRequest is the body of the note-based NLP endpoints.
// The note length is governed by the per-task input limits.
type ClinicalNoteRequest struct {
	Note           string `json:"note"`
	PatientContext string `json:"patientContext" binding:"max=2000"`
}

// ClassificationRequest is the body of the classification endpoint
type ClassificationRequest struct {
	Text   string   `json:"text" binding:"required,max=5000"`
	Labels []string `json:"labels" binding:"required,min=1,max=50,dive,required"`
}

// AnalysisResponse wraps /analyze results with request timing
type AnalysisResponse struct {
	RequestID        string    `json:"requestId"`
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	Data             any       `json:"data"`
}

type noteCall[T any] func(ctx context.Context, note nlpcloud.ClinicalNote) (T, error)

// noteHandler binds a ClinicalNoteRequest, enforces the task's input limit and
// forwards the note upstream
func noteHandler[T any](task nlpcloud.TaskKind, call noteCall[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ClinicalNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		if err := validation.CheckInput(task, req.Note); err != nil {
			respondInputError(c, err)
			return
		}

		result, err := call(c.Request.Context(), nlpcloud.ClinicalNote{
			Text:    req.Note,
			Context: req.PatientContext,
		})
		if err != nil {
			respondGatewayError(c, task, err)
			return
		}

		respondOK(c, result)
	}
}

func (s *Server) handleGrammar() gin.HandlerFunc {
	return noteHandler(nlpcloud.TaskGrammar, func(ctx context.Context, n nlpcloud.ClinicalNote) (*nlpcloud.GrammarResult, error) {
		return s.gateway.CheckGrammar(ctx, n)
	})
}

func (s *Server) handleEntities() gin.HandlerFunc {
	return noteHandler(nlpcloud.TaskEntities, func(ctx context.Context, n nlpcloud.ClinicalNote) (*nlpcloud.EntitiesResult, error) {
		return s.gateway.ExtractEntities(ctx, n)
	})
}

func (s *Server) handleSummarize() gin.HandlerFunc {
	return noteHandler(nlpcloud.TaskSummarize, func(ctx context.Context, n nlpcloud.ClinicalNote) (*nlpcloud.SummaryResult, error) {
		return s.gateway.Summarize(ctx, n)
	})
}

func (s *Server) handleKeywords() gin.HandlerFunc {
	return noteHandler(nlpcloud.TaskKeywords, func(ctx context.Context, n nlpcloud.ClinicalNote) (*nlpcloud.KeywordsResult, error) {
		return s.gateway.ExtractKeywords(ctx, n)
	})
}

// handleClassify runs zero-shot classification over caller-supplied labels
func (s *Server) handleClassify(c *gin.Context) {
	var req ClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := validation.CheckInput(nlpcloud.TaskClassify, req.Text); err != nil {
		respondInputError(c, err)
		return
	}

	result, err := s.gateway.Classify(c.Request.Context(), req.Text, req.Labels)
	if err != nil {
		respondGatewayError(c, nlpcloud.TaskClassify, err)
		return
	}

	respondOK(c, result)
}

// handleAnalyze classifies form text against DefaultLabels
func (s *Server) handleAnalyze(c *gin.Context) {
	start := time.Now()

	text := c.PostForm("text")
	v := validation.NewValidator()
	v.Required("text", text)
	if err := v.Err(); err != nil {
		respondInputError(c, err)
		return
	}

	if err := validation.CheckInput(nlpcloud.TaskClassify, text); err != nil {
		respondInputError(c, err)
		return
	}

	result, err := s.gateway.Classify(c.Request.Context(), text, DefaultLabels)
	if err != nil {
		respondGatewayError(c, nlpcloud.TaskClassify, err)
		return
	}

	id := requestID(c)
	if id == "" {
		id = uuid.NewString()
	}

	c.JSON(http.StatusOK, AnalysisResponse{
		RequestID:        id,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Data:             result,
	})
}
