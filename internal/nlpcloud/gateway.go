package nlpcloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ajitpratap0/clinicalnlp/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrResponseTooLarge is returned when an upstream body exceeds the read cap
var ErrResponseTooLarge = errors.New("upstream response too large")

// apiVersionPrefix is appended to the base URL when it is missing
const apiVersionPrefix = "/v1"

// Gateway is the single entry point to the NLP provider.
// It holds only immutable configuration and is safe for concurrent use.
type Gateway struct {
	baseURL    string
	maxBody    int64
	httpClient *http.Client
	router     *Router
	builder    *RequestBuilder
	retrier    *RetryExecutor
	normalizer *Normalizer
}

// New creates a gateway, filling unset values with defaults
func New(cfg Config) *Gateway {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Gateway{
		baseURL:    WithVersionPrefix(cfg.BaseURL),
		maxBody:    cfg.MaxResponseBytes,
		httpClient: httpClient,
		router:     NewRouter(cfg.Tasks),
		builder:    NewRequestBuilder(cfg.APIKey),
		retrier:    NewRetryExecutor(cfg.MaxRetries, cfg.BaseDelay),
		normalizer: NewNormalizer(),
	}
}

// WithRetryExecutor returns a copy of the gateway using r
func (g *Gateway) WithRetryExecutor(r *RetryExecutor) *Gateway {
	cp := *g
	cp.retrier = r
	return &cp
}

// WithVersionPrefix ensures the base URL ends in the provider API version
func WithVersionPrefix(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(base, apiVersionPrefix) {
		return base
	}
	return base + apiVersionPrefix
}

// CheckGrammar corrects grammar and spelling in a note
func (g *Gateway) CheckGrammar(ctx context.Context, note ClinicalNote) (*GrammarResult, error) {
	body, err := g.callNote(ctx, TaskGrammar, note)
	if err != nil {
		return nil, err
	}
	res, err := g.normalizer.Grammar(body)
	if err != nil {
		return nil, g.parseFailure(TaskGrammar, err)
	}
	return res, nil
}

// ExtractEntities recognizes clinical entities in a note
func (g *Gateway) ExtractEntities(ctx context.Context, note ClinicalNote) (*EntitiesResult, error) {
	body, err := g.callNote(ctx, TaskEntities, note)
	if err != nil {
		return nil, err
	}
	res, err := g.normalizer.Entities(body)
	if err != nil {
		return nil, g.parseFailure(TaskEntities, err)
	}
	return res, nil
}

// Summarize produces a short summary and key findings for a note
func (g *Gateway) Summarize(ctx context.Context, note ClinicalNote) (*SummaryResult, error) {
	body, err := g.callNote(ctx, TaskSummarize, note)
	if err != nil {
		return nil, err
	}
	res, err := g.normalizer.Summary(body)
	if err != nil {
		return nil, g.parseFailure(TaskSummarize, err)
	}
	return res, nil
}

// ExtractKeywords extracts keywords and keyphrases from a note
func (g *Gateway) ExtractKeywords(ctx context.Context, note ClinicalNote) (*KeywordsResult, error) {
	body, err := g.callNote(ctx, TaskKeywords, note)
	if err != nil {
		return nil, err
	}
	res, err := g.normalizer.Keywords(body)
	if err != nil {
		return nil, g.parseFailure(TaskKeywords, err)
	}
	return res, nil
}

// Classify runs zero-shot classification of text against labels
func (g *Gateway) Classify(ctx context.Context, text string, labels []string) (*ClassificationResult, error) {
	desc, err := g.router.Resolve(TaskClassify)
	if err != nil {
		return nil, err
	}
	req, err := g.builder.BuildClassification(desc.Path, text, labels, true)
	if err != nil {
		return nil, err
	}
	body, err := g.execute(ctx, TaskClassify, req)
	if err != nil {
		return nil, err
	}
	res, err := g.normalizer.Classification(body)
	if err != nil {
		return nil, g.parseFailure(TaskClassify, err)
	}
	return res, nil
}

func (g *Gateway) callNote(ctx context.Context, task TaskKind, note ClinicalNote) ([]byte, error) {
	desc, err := g.router.Resolve(task)
	if err != nil {
		return nil, err
	}
	req, err := g.builder.Build(task, desc.Path, note)
	if err != nil {
		return nil, err
	}
	return g.execute(ctx, task, req)
}

func (g *Gateway) execute(ctx context.Context, task TaskKind, req OutboundRequest) ([]byte, error) {
	payload, err := req.Body()
	if err != nil {
		return nil, newGatewayError(task, KindUnknown, err)
	}

	url := g.baseURL + req.Path
	log.Debug().
		Str("task", string(task)).
		Str("path", req.Path).
		Int("max_retries", g.retrier.MaxRetries()).
		Msg("Sending NLP Cloud request")

	return g.retrier.Execute(ctx, task, req.Path, func(ctx context.Context) ([]byte, error) {
		return g.post(ctx, url, req.AuthHeader, payload)
	})
}

// post performs exactly one HTTP attempt. Each attempt gets a fresh request
// over the same encoded payload.
func (g *Gateway) post(ctx context.Context, url, auth string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", auth)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > g.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, g.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, BodyLen: len(body)}
	}

	return body, nil
}

func (g *Gateway) parseFailure(task TaskKind, err error) *GatewayError {
	metrics.RecordUpstreamFailure(string(task), string(KindParseError))
	log.Error().
		Str("task", string(task)).
		Str("kind", string(KindParseError)).
		Msg("NLP Cloud returned an unparsable payload")
	return newGatewayError(task, Classify(err), err)
}
