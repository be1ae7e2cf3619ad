package nlpcloud

import (
	"net/http"
	"time"
)

// TaskKind identifies one of the fixed NLP operations offered by the provider
type TaskKind string

const (
	TaskGrammar   TaskKind = "grammar"
	TaskEntities  TaskKind = "entities"
	TaskSummarize TaskKind = "summarize"
	TaskKeywords  TaskKind = "keywords"
	TaskClassify  TaskKind = "classify"
)

// AllTasks lists every supported task in a stable order
var AllTasks = []TaskKind{TaskGrammar, TaskEntities, TaskSummarize, TaskKeywords, TaskClassify}

// Valid reports whether k is a known task
func (k TaskKind) Valid() bool {
	for _, t := range AllTasks {
		if t == k {
			return true
		}
	}
	return false
}

func (k TaskKind) String() string {
	return string(k)
}

// TaskConfig holds the per-task routing settings
type TaskConfig struct {
	Model    string // provider model id, e.g. "en_core_web_lg"
	Endpoint string // endpoint suffix, e.g. "/entities"
	Tier     string // optional routing prefix, e.g. "gpu"
}

// Config is the immutable gateway configuration. It is read once at startup.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	Tasks      map[TaskKind]TaskConfig

	// MaxResponseBytes caps how much of one upstream body is read
	MaxResponseBytes int64

	// HTTPClient overrides the transport. Its Timeout is left untouched when set.
	HTTPClient *http.Client
}

const (
	DefaultBaseURL   = "https://api.nlpcloud.io"
	DefaultTimeout   = 5 * time.Second
	DefaultBaseDelay = 500 * time.Millisecond

	DefaultMaxResponseBytes int64 = 8 << 20
)

// ClinicalNote is the input for the note-based tasks
type ClinicalNote struct {
	Text    string
	Context string
}

// Result is the tagged union of normalized task results
type Result interface {
	Task() TaskKind
}

// Suggestion is a single grammar/spelling correction
type Suggestion struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Suggestion string `json:"suggestion"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// GrammarResult is the normalized grammar correction output
type GrammarResult struct {
	CorrectedText string       `json:"correctedText"`
	Suggestions   []Suggestion `json:"suggestions"`
}

// Entity is a span recognized in the note
type Entity struct {
	Label      string  `json:"entity"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
}

// EntitiesResult is the normalized entity extraction output
type EntitiesResult struct {
	Entities []Entity `json:"entities"`
}

// SummaryResult is the normalized summarization output
type SummaryResult struct {
	Summary     string   `json:"summary"`
	KeyFindings []string `json:"keyFindings"`
}

// KeywordsResult is the normalized keyword extraction output
type KeywordsResult struct {
	Keywords []string `json:"keywords"`
}

// ClassificationResult holds parallel label/score arrays of equal length
type ClassificationResult struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (*GrammarResult) Task() TaskKind        { return TaskGrammar }
func (*EntitiesResult) Task() TaskKind       { return TaskEntities }
func (*SummaryResult) Task() TaskKind        { return TaskSummarize }
func (*KeywordsResult) Task() TaskKind       { return TaskKeywords }
func (*ClassificationResult) Task() TaskKind { return TaskClassify }
