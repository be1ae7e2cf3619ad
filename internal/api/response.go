package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
	"github.com/ajitpratap0/clinicalnlp/internal/validation"
)

// MedicalDisclaimer is attached to every response body and header
const MedicalDisclaimer = "This tool does not provide diagnosis."

const (
	errorMessageKey = "error_message"

	messageUnreadableBody = "Request body could not be parsed"
	messageNotFound       = "Resource not found"
)

// ErrorBody carries the caller-facing failure message
type ErrorBody struct {
	Message string `json:"message"`
}

// Result is the envelope wrapping every JSON response
type Result struct {
	Timestamp         time.Time  `json:"timestamp"`
	Status            int        `json:"status"`
	Path              string     `json:"path"`
	Data              any        `json:"data"`
	Error             *ErrorBody `json:"error"`
	MedicalDisclaimer string     `json:"medicalDisclaimer"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Result{
		Timestamp:         time.Now().UTC(),
		Status:            http.StatusOK,
		Path:              c.Request.URL.Path,
		Data:              data,
		MedicalDisclaimer: MedicalDisclaimer,
	})
}

func abortWithError(c *gin.Context, status int, message string) {
	c.Set(errorMessageKey, message)
	c.AbortWithStatusJSON(status, Result{
		Timestamp:         time.Now().UTC(),
		Status:            status,
		Path:              c.Request.URL.Path,
		Error:             &ErrorBody{Message: message},
		MedicalDisclaimer: MedicalDisclaimer,
	})
}

// respondBindError maps a request decoding failure to 400, or 413 when the
// body exceeded the size limit
func respondBindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		msg := fmt.Sprintf("Request body exceeds maximum supported size (%d bytes)", maxErr.Limit)
		log.Warn().Str("request_id", requestID(c)).Str("path", c.Request.URL.Path).Msg(msg)
		abortWithError(c, http.StatusRequestEntityTooLarge, msg)
		return
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Field()+": "+fieldMessage(fe))
		}
		msg := strings.Join(msgs, "; ")
		log.Warn().Str("request_id", requestID(c)).Str("path", c.Request.URL.Path).Str("errors", msg).Msg("Validation failed")
		abortWithError(c, http.StatusBadRequest, msg)
		return
	}

	log.Warn().Str("request_id", requestID(c)).Str("path", c.Request.URL.Path).Msg("Unreadable request body")
	abortWithError(c, http.StatusBadRequest, messageUnreadableBody)
}

// respondInputError maps validation package failures to 400 or 413
func respondInputError(c *gin.Context, err error) {
	var tooLarge *validation.PayloadTooLargeError
	if errors.As(err, &tooLarge) {
		log.Warn().
			Str("request_id", requestID(c)).
			Str("path", c.Request.URL.Path).
			Str("task", tooLarge.Task.String()).
			Msg(tooLarge.Error())
		abortWithError(c, http.StatusRequestEntityTooLarge, tooLarge.Error())
		return
	}

	var fieldErrs validation.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Error())
		}
		abortWithError(c, http.StatusBadRequest, strings.Join(msgs, "; "))
		return
	}

	var fieldErr *validation.ValidationError
	if errors.As(err, &fieldErr) {
		abortWithError(c, http.StatusBadRequest, fieldErr.Error())
		return
	}

	respondInternalError(c, err)
}

// respondGatewayError maps a gateway failure through the external error table.
// The cause is logged; only the safe message reaches the caller.
func respondGatewayError(c *gin.Context, task nlpcloud.TaskKind, err error) {
	ext := nlpcloud.ToExternal(err)

	log.Warn().
		Err(err).
		Str("request_id", requestID(c)).
		Str("path", c.Request.URL.Path).
		Str("task", task.String()).
		Int("status", ext.StatusCode).
		Msg("NLP request failed")

	abortWithError(c, ext.StatusCode, ext.Message)
}

func respondInternalError(c *gin.Context, err error) {
	log.Error().
		Err(err).
		Str("request_id", requestID(c)).
		Str("path", c.Request.URL.Path).
		Msg("Unexpected error")

	abortWithError(c, http.StatusInternalServerError, nlpcloud.MessageUnexpected)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at most %s values", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at least %s value(s)", fe.Param())
	default:
		return "is invalid"
	}
}

var registerTagNames sync.Once

// registerJSONFieldNames makes binding errors name fields the way callers send them
func registerJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
