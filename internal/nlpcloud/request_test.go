package nlpcloud

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBuilder_Build(t *testing.T) {
	b := NewRequestBuilder("  secret  ")

	req, err := b.Build(TaskGrammar, "/gpu/chatdolphin/gs-correction", ClinicalNote{Text: "Ths is a bad sentance", Context: "BP 130/90"})
	require.NoError(t, err)
	assert.Equal(t, "/gpu/chatdolphin/gs-correction", req.Path)
	assert.Equal(t, "Token secret", req.AuthHeader)
	assert.Equal(t, map[string]any{"text": "Ths is a bad sentance", "context": "BP 130/90"}, req.Payload)
}

func TestRequestBuilder_OmitsBlankContext(t *testing.T) {
	b := NewRequestBuilder("secret")

	for _, ctx := range []string{"", "   "} {
		req, err := b.Build(TaskEntities, "/m/entities", ClinicalNote{Text: "note", Context: ctx})
		require.NoError(t, err)
		_, ok := req.Payload["context"]
		assert.False(t, ok, "context %q must be omitted", ctx)
	}
}

func TestRequestBuilder_RejectsMissingKey(t *testing.T) {
	for _, key := range []string{"", "   ", "***redacted***", " ***redacted*** "} {
		b := NewRequestBuilder(key)
		_, err := b.Build(TaskSummarize, "/m/summarization", ClinicalNote{Text: "note"})
		require.Error(t, err)

		var gwErr *GatewayError
		require.True(t, errors.As(err, &gwErr))
		assert.Equal(t, KindConfiguration, gwErr.Kind)
		assert.Equal(t, MessageMissingKey, gwErr.SafeMessage)
	}
}

func TestRequestBuilder_BuildClassification(t *testing.T) {
	labels := []string{"cardiology", "oncology"}
	b := NewRequestBuilder("secret")

	req, err := b.BuildClassification("/m/classification", "chest pain", labels, true)
	require.NoError(t, err)
	labels[0] = "mutated"

	body, err := req.Body()
	require.NoError(t, err)

	var decoded struct {
		Text       string   `json:"text"`
		Labels     []string `json:"labels"`
		MultiClass bool     `json:"multi_class"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "chest pain", decoded.Text)
	assert.Equal(t, []string{"cardiology", "oncology"}, decoded.Labels)
	assert.True(t, decoded.MultiClass)
}
