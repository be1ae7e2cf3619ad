package nlpcloud

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Field name compatibility table. The first name present wins.
// Provider schemas drift between model versions, so every read has a fallback.
var (
	fieldsCorrectedText = []string{"corrected_text", "correction", "correctedText"}
	fieldsSuggestions   = []string{"suggestions", "corrections"}
	fieldsEntityLabel   = []string{"entity", "type"}
	fieldsConfidence    = []string{"confidence", "score"}
	fieldsSummary       = []string{"summary_text", "summary"}
	fieldsKeyFindings   = []string{"key_findings", "keyFindings"}
	fieldsKeywords      = []string{"keywords", "keywords_and_keyphrases"}
	fieldsGeneratedText = []string{"summary_text", "generated_text"}
)

var errNotObject = errors.New("payload root is not a JSON object")

// Normalizer converts loosely-typed provider JSON into stable result shapes.
// Missing optional arrays become empty slices; missing scalars take their zero value.
type Normalizer struct{}

// NewNormalizer creates a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize dispatches on the task kind
func (n *Normalizer) Normalize(kind TaskKind, body []byte) (Result, error) {
	switch kind {
	case TaskGrammar:
		return n.Grammar(body)
	case TaskEntities:
		return n.Entities(body)
	case TaskSummarize:
		return n.Summary(body)
	case TaskKeywords:
		return n.Keywords(body)
	case TaskClassify:
		return n.Classification(body)
	default:
		return nil, &ParseError{Task: kind, Err: fmt.Errorf("unsupported task %q", string(kind))}
	}
}

// Grammar normalizes a grammar correction payload
func (n *Normalizer) Grammar(body []byte) (*GrammarResult, error) {
	root, err := parseObject(TaskGrammar, body)
	if err != nil {
		return nil, err
	}

	items := root.array(fieldsSuggestions...)
	suggestions := make([]Suggestion, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := fields(obj)
		suggestions = append(suggestions, Suggestion{
			Type:       f.str("type"),
			Text:       f.str("text"),
			Suggestion: f.str("suggestion"),
			Start:      f.integer("start"),
			End:        f.integer("end"),
		})
	}

	return &GrammarResult{
		CorrectedText: root.str(fieldsCorrectedText...),
		Suggestions:   suggestions,
	}, nil
}

// Entities normalizes an entity extraction payload
func (n *Normalizer) Entities(body []byte) (*EntitiesResult, error) {
	root, err := parseObject(TaskEntities, body)
	if err != nil {
		return nil, err
	}

	items := root.array("entities")
	entities := make([]Entity, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := fields(obj)
		entities = append(entities, Entity{
			Label:      f.str(fieldsEntityLabel...),
			Text:       f.str("text"),
			Start:      f.integer("start"),
			End:        f.integer("end"),
			Confidence: clamp01(f.number(fieldsConfidence...)),
		})
	}

	return &EntitiesResult{Entities: entities}, nil
}

// Summary normalizes a summarization payload
func (n *Normalizer) Summary(body []byte) (*SummaryResult, error) {
	root, err := parseObject(TaskSummarize, body)
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Summary:     root.str(fieldsSummary...),
		KeyFindings: root.list(fieldsKeyFindings...),
	}, nil
}

// Keywords normalizes a keyword extraction payload. Structured arrays are
// preferred; otherwise a delimited text answer is split into keywords.
func (n *Normalizer) Keywords(body []byte) (*KeywordsResult, error) {
	root, err := parseObject(TaskKeywords, body)
	if err != nil {
		return nil, err
	}

	keywords := root.list(fieldsKeywords...)
	if len(keywords) == 0 {
		keywords = SplitDelimited(root.str(fieldsGeneratedText...))
	}

	return &KeywordsResult{Keywords: keywords}, nil
}

// Classification normalizes a zero-shot classification payload.
// Scores are padded with zero or truncated so both arrays have the same length.
func (n *Normalizer) Classification(body []byte) (*ClassificationResult, error) {
	root, err := parseObject(TaskClassify, body)
	if err != nil {
		return nil, err
	}

	rawLabels := root.array("labels")
	rawScores := root.array("scores")

	// Scores stay paired with their label by upstream index
	labels := make([]string, 0, len(rawLabels))
	scores := make([]float64, 0, len(rawLabels))
	for i, item := range rawLabels {
		label, ok := item.(string)
		if !ok {
			continue
		}
		if label = strings.TrimSpace(label); label == "" {
			continue
		}

		var score float64
		if i < len(rawScores) {
			if v, ok := toFloat(rawScores[i]); ok {
				score = v
			}
		}
		labels = append(labels, label)
		scores = append(scores, score)
	}

	return &ClassificationResult{Labels: labels, Scores: scores}, nil
}

// SplitDelimited splits a comma or newline separated answer into trimmed,
// non-empty, de-duplicated entries in first-seen order.
func SplitDelimited(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// fields is a decoded JSON object with tolerant accessors
type fields map[string]any

func parseObject(task TaskKind, body []byte) (fields, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, &ParseError{Task: task, Err: err}
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, &ParseError{Task: task, Err: errNotObject}
	}
	return fields(obj), nil
}

func (f fields) str(names ...string) string {
	for _, name := range names {
		if s, ok := f[name].(string); ok {
			return s
		}
	}
	return ""
}

func (f fields) number(names ...string) float64 {
	for _, name := range names {
		if v, ok := toFloat(f[name]); ok {
			return v
		}
	}
	return 0
}

func (f fields) integer(names ...string) int {
	v := f.number(names...)
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(v)
}

func (f fields) array(names ...string) []any {
	for _, name := range names {
		if arr, ok := f[name].([]any); ok {
			return arr
		}
	}
	return nil
}

// stringList returns the string elements of the first array field, trimmed
func (f fields) stringList(names ...string) []string {
	items := f.array(names...)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// list reads the first non-empty string list among names. Each field may be
// an array or a delimited string.
func (f fields) list(names ...string) []string {
	for _, name := range names {
		var items []string
		switch v := f[name].(type) {
		case []any:
			items = f.stringList(name)
		case string:
			items = SplitDelimited(v)
		}
		if len(items) > 0 {
			return items
		}
	}
	return []string{}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
