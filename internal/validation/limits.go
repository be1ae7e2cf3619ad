package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
)

// InputLimit bounds the text a task will forward upstream
type InputLimit struct {
	Operation string
	MaxChars  int
}

// Limits are the largest inputs each model accepts without chunking
var Limits = map[nlpcloud.TaskKind]InputLimit{
	nlpcloud.TaskGrammar:   {Operation: "Grammar correction", MaxChars: 20000},
	nlpcloud.TaskKeywords:  {Operation: "Keyword extraction", MaxChars: 3000},
	nlpcloud.TaskSummarize: {Operation: "Summarization", MaxChars: 3000},
	nlpcloud.TaskEntities:  {Operation: "Entity extraction", MaxChars: 1000},
	nlpcloud.TaskClassify:  {Operation: "Classification", MaxChars: 5000},
}

// PayloadTooLargeError rejects input a task cannot process in one call.
// Blank input is reported the same way.
type PayloadTooLargeError struct {
	Task      nlpcloud.TaskKind
	Operation string
	MaxChars  int
	Empty     bool
}

func (e *PayloadTooLargeError) Error() string {
	if e.Empty {
		return e.Operation + " input is empty."
	}
	return fmt.Sprintf("%s input exceeds maximum supported size (%d characters). Chunking is required.",
		e.Operation, e.MaxChars)
}

// CheckInput enforces the per-task size limit. Length is counted in
// characters, not bytes.
func CheckInput(task nlpcloud.TaskKind, text string) error {
	limit, ok := Limits[task]
	if !ok {
		return &ValidationError{Field: "task", Message: fmt.Sprintf("unsupported task %q", task)}
	}

	if strings.TrimSpace(text) == "" {
		return &PayloadTooLargeError{Task: task, Operation: limit.Operation, MaxChars: limit.MaxChars, Empty: true}
	}
	if utf8.RuneCountInString(text) > limit.MaxChars {
		return &PayloadTooLargeError{Task: task, Operation: limit.Operation, MaxChars: limit.MaxChars}
	}
	return nil
}
