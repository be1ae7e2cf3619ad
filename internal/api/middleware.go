package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
)

const (
	RequestIDHeader  = "X-Request-ID"
	DisclaimerHeader = "X-Medical-Disclaimer"

	requestIDKey = "request_id"
	maxIDLength  = 128
)

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns a new one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxIDLength {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// DisclaimerMiddleware stamps every response with the medical disclaimer
func DisclaimerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(DisclaimerHeader, MedicalDisclaimer)
		c.Next()
	}
}

// BodyLimitMiddleware rejects request bodies larger than maxBytes while they are read
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// LoggerMiddleware is a custom logging middleware for Gin
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// Process request
		c.Next()

		// Query strings and bodies may carry patient data and are never logged
		latency := time.Since(start)
		statusCode := c.Writer.Status()

		logEvent := log.Info()
		if statusCode >= http.StatusInternalServerError {
			logEvent = log.Warn()
		}

		logEvent = logEvent.
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP())

		if len(c.Errors) > 0 {
			logEvent.Str("errors", c.Errors.String())
		}

		logEvent.Msg("API request")
	}
}

// recoverWithEnvelope turns a handler panic into the generic 500 envelope
func recoverWithEnvelope(c *gin.Context, recovered any) {
	log.Error().
		Str("request_id", requestID(c)).
		Str("path", c.Request.URL.Path).
		Interface("panic", recovered).
		Msg("Recovered from handler panic")

	abortWithError(c, http.StatusInternalServerError, nlpcloud.MessageUnexpected)
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
