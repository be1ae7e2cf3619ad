// Package audit records access to patient data and NLP processing requests.
// Events carry identifiers only; note text and patient names are never logged.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/metrics"
)

// EventType represents the type of audit event
type EventType string

const (
	// Patient report events
	EventTypeReportCreated EventType = "REPORT_CREATED"
	EventTypeReportViewed  EventType = "REPORT_VIEWED"
	EventTypeReportsListed EventType = "REPORTS_LISTED"
	EventTypeReportUpdated EventType = "REPORT_UPDATED"
	EventTypeReportDeleted EventType = "REPORT_DELETED"

	// NLP processing events
	EventTypeNLPRequest EventType = "NLP_REQUEST"
)

// Severity represents the severity level of an audit event
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// DefaultQueryLimit caps Query results when no limit is given
const DefaultQueryLimit = 100

// Event represents a single audit log event
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	EventType EventType      `json:"event_type"`
	Severity  Severity       `json:"severity"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent,omitempty"`
	Resource  string         `json:"resource,omitempty"` // report id or NLP task
	Action    string         `json:"action"`
	Success   bool           `json:"success"`
	ErrorMsg  string         `json:"error_message,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Duration  int64          `json:"duration_ms,omitempty"`
}

// RequestInfo identifies the caller of an audited operation
type RequestInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// DBTX is the part of a pgx pool the logger needs
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Logger handles audit logging operations. Without a database, events are
// only written to the structured log.
type Logger struct {
	db      DBTX
	enabled bool
}

// NewLogger creates a new audit logger. db may be nil.
func NewLogger(db DBTX, enabled bool) *Logger {
	return &Logger{
		db:      db,
		enabled: enabled,
	}
}

// Enabled reports whether events are recorded
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Log records an audit event
func (l *Logger) Log(ctx context.Context, event *Event) error {
	if !l.Enabled() {
		return nil
	}

	start := time.Now()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	logEvent := log.With().
		Str("event_id", event.ID.String()).
		Str("event_type", string(event.EventType)).
		Str("severity", string(event.Severity)).
		Str("ip_address", event.IPAddress).
		Str("resource", event.Resource).
		Str("action", event.Action).
		Str("request_id", event.RequestID).
		Bool("success", event.Success).
		Logger()

	if event.ErrorMsg != "" {
		logEvent = logEvent.With().Str("error", event.ErrorMsg).Logger()
	}
	if event.Duration > 0 {
		logEvent = logEvent.With().Int64("duration_ms", event.Duration).Logger()
	}

	switch event.Severity {
	case SeverityError:
		logEvent.Error().Msg("Audit event")
	case SeverityWarning:
		logEvent.Warn().Msg("Audit event")
	default:
		logEvent.Info().Msg("Audit event")
	}

	if l.db != nil {
		if err := l.persistEvent(ctx, event); err != nil {
			metrics.RecordAuditEvent(string(event.EventType), false, float64(time.Since(start).Milliseconds()))
			return err
		}
	}

	metrics.RecordAuditEvent(string(event.EventType), true, float64(time.Since(start).Milliseconds()))
	return nil
}

const insertEventSQL = `
	INSERT INTO audit_logs (
		id, timestamp, event_type, severity, ip_address, user_agent,
		resource, action, success, error_message, metadata, request_id, duration_ms
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)`

// persistEvent stores the audit event in the database
func (l *Logger) persistEvent(ctx context.Context, event *Event) error {
	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit event metadata")
			metadataJSON = []byte("{}")
		}
	}

	_, err := l.db.Exec(ctx, insertEventSQL,
		event.ID,
		event.Timestamp,
		string(event.EventType),
		string(event.Severity),
		event.IPAddress,
		event.UserAgent,
		event.Resource,
		event.Action,
		event.Success,
		event.ErrorMsg,
		metadataJSON,
		event.RequestID,
		event.Duration,
	)
	if err != nil {
		log.Error().Err(err).
			Str("event_id", event.ID.String()).
			Str("event_type", string(event.EventType)).
			Msg("Failed to persist audit event to database")
		return fmt.Errorf("failed to persist audit event: %w", err)
	}

	return nil
}

// QueryFilters defines filters for querying audit events
type QueryFilters struct {
	EventType EventType
	Resource  string
	StartTime time.Time
	EndTime   time.Time
	Success   *bool
	Limit     int
}

// buildQuery renders the filtered select with positional arguments
func buildQuery(filters QueryFilters) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, timestamp, event_type, severity, ip_address, user_agent,
		resource, action, success, error_message, metadata, request_id, duration_ms
		FROM audit_logs WHERE 1=1`)

	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND %s $%d", clause, len(args))
	}

	if filters.EventType != "" {
		add("event_type =", string(filters.EventType))
	}
	if filters.Resource != "" {
		add("resource =", filters.Resource)
	}
	if !filters.StartTime.IsZero() {
		add("timestamp >=", filters.StartTime)
	}
	if !filters.EndTime.IsZero() {
		add("timestamp <=", filters.EndTime)
	}
	if filters.Success != nil {
		add("success =", *filters.Success)
	}

	limit := filters.Limit
	if limit <= 0 || limit > DefaultQueryLimit {
		limit = DefaultQueryLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY timestamp DESC LIMIT $%d", len(args))

	return sb.String(), args
}

// Query retrieves audit events newest first. Without a database it returns
// an empty list.
func (l *Logger) Query(ctx context.Context, filters QueryFilters) ([]Event, error) {
	events := []Event{}
	if l == nil || l.db == nil {
		return events, nil
	}

	query, args := buildQuery(filters)
	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			event        Event
			eventType    string
			severity     string
			metadataJSON []byte
		)

		if err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&eventType,
			&severity,
			&event.IPAddress,
			&event.UserAgent,
			&event.Resource,
			&event.Action,
			&event.Success,
			&event.ErrorMsg,
			&metadataJSON,
			&event.RequestID,
			&event.Duration,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.EventType = EventType(eventType)
		event.Severity = Severity(severity)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				log.Warn().Err(err).Msg("Failed to unmarshal audit event metadata")
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit events: %w", err)
	}
	return events, nil
}

// Helper functions for common audit events

// LogReportAccess records a read or write of a patient report. reportID is
// empty for list operations.
func (l *Logger) LogReportAccess(ctx context.Context, eventType EventType, reportID string, req RequestInfo, opErr error) error {
	event := &Event{
		EventType: eventType,
		Severity:  SeverityInfo,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		RequestID: req.RequestID,
		Resource:  reportID,
		Action:    reportAction(eventType),
		Success:   opErr == nil,
	}
	if opErr != nil {
		event.Severity = SeverityWarning
		event.ErrorMsg = opErr.Error()
	}
	return l.Log(ctx, event)
}

// LogNLPRequest records one NLP task invocation and its HTTP outcome.
// errorMsg must already be caller-safe.
func (l *Logger) LogNLPRequest(ctx context.Context, task string, req RequestInfo, status int, duration time.Duration, errorMsg string) error {
	severity := SeverityInfo
	switch {
	case status >= 500:
		severity = SeverityError
	case status >= 400:
		severity = SeverityWarning
	}

	return l.Log(ctx, &Event{
		EventType: EventTypeNLPRequest,
		Severity:  severity,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		RequestID: req.RequestID,
		Resource:  task,
		Action:    "NLP " + task + " request",
		Success:   status < 400,
		ErrorMsg:  errorMsg,
		Metadata:  map[string]any{"status": status},
		Duration:  duration.Milliseconds(),
	})
}

func reportAction(eventType EventType) string {
	switch eventType {
	case EventTypeReportCreated:
		return "Report created"
	case EventTypeReportViewed:
		return "Report viewed"
	case EventTypeReportsListed:
		return "Reports listed"
	case EventTypeReportUpdated:
		return "Report updated"
	case EventTypeReportDeleted:
		return "Report deleted"
	default:
		return "Report operation"
	}
}
