package nlpcloud

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Payload keys understood by the provider
const (
	payloadText       = "text"
	payloadContext    = "context"
	payloadLabels     = "labels"
	payloadMultiClass = "multi_class"
)

// redactedAPIKey is what secret managers leave behind when a value was scrubbed
const redactedAPIKey = "***redacted***"

// OutboundRequest is one logical upstream request. Its payload is shared by every attempt.
type OutboundRequest struct {
	Path       string
	Payload    map[string]any
	AuthHeader string
}

// Body encodes the payload as JSON
func (r OutboundRequest) Body() ([]byte, error) {
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

// RequestBuilder assembles payloads and the authorization header
type RequestBuilder struct {
	apiKey string
}

// NewRequestBuilder creates a builder for the configured API key
func NewRequestBuilder(apiKey string) *RequestBuilder {
	return &RequestBuilder{apiKey: apiKey}
}

// Build creates the request for a note-based task
func (b *RequestBuilder) Build(task TaskKind, path string, note ClinicalNote) (OutboundRequest, error) {
	auth, err := b.authHeader(task)
	if err != nil {
		return OutboundRequest{}, err
	}

	payload := map[string]any{payloadText: note.Text}
	if ctx := strings.TrimSpace(note.Context); ctx != "" {
		payload[payloadContext] = note.Context
	}

	return OutboundRequest{Path: path, Payload: payload, AuthHeader: auth}, nil
}

// BuildClassification creates the zero-shot classification request
func (b *RequestBuilder) BuildClassification(path, text string, labels []string, multiClass bool) (OutboundRequest, error) {
	auth, err := b.authHeader(TaskClassify)
	if err != nil {
		return OutboundRequest{}, err
	}

	copied := make([]string, len(labels))
	copy(copied, labels)

	return OutboundRequest{
		Path: path,
		Payload: map[string]any{
			payloadText:       text,
			payloadLabels:     copied,
			payloadMultiClass: multiClass,
		},
		AuthHeader: auth,
	}, nil
}

func (b *RequestBuilder) authHeader(task TaskKind) (string, error) {
	key := strings.TrimSpace(b.apiKey)
	if key == "" || key == redactedAPIKey {
		return "", configError(task, MessageMissingKey)
	}
	return "Token " + key, nil
}
