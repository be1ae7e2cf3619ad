package nlpcloud

import (
	"fmt"
	"strings"
)

// TaskDescriptor is the resolved upstream route for one task
type TaskDescriptor struct {
	Kind         TaskKind
	ModelID      string
	EndpointPath string
	Path         string
}

// Router resolves tasks to upstream paths
type Router struct {
	tasks map[TaskKind]TaskConfig
}

// NewRouter creates a router over a copy of the task table
func NewRouter(tasks map[TaskKind]TaskConfig) *Router {
	copied := make(map[TaskKind]TaskConfig, len(tasks))
	for k, v := range tasks {
		copied[k] = v
	}
	return &Router{tasks: copied}
}

// Resolve builds the path "[/tier]/model/endpoint" for a task.
// A blank model or endpoint is a configuration error and is never retried.
func (r *Router) Resolve(kind TaskKind) (TaskDescriptor, error) {
	if !kind.Valid() {
		return TaskDescriptor{}, configError(kind, fmt.Sprintf("NLP Cloud task %q is not supported.", string(kind)))
	}

	tc := r.tasks[kind]
	model := strings.Trim(strings.TrimSpace(tc.Model), "/")
	if model == "" {
		return TaskDescriptor{}, configError(kind, fmt.Sprintf(
			"NLP Cloud model for %s is missing. Please configure 'nlpcloud.tasks.%s.model'.", kind, kind))
	}

	endpoint := strings.TrimSpace(tc.Endpoint)
	if strings.Trim(endpoint, "/") == "" {
		return TaskDescriptor{}, configError(kind, fmt.Sprintf(
			"NLP Cloud endpoint for %s is missing. Please configure 'nlpcloud.tasks.%s.endpoint'.", kind, kind))
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	path := "/" + model + endpoint
	if tier := strings.Trim(strings.TrimSpace(tc.Tier), "/"); tier != "" {
		path = "/" + tier + path
	}

	return TaskDescriptor{
		Kind:         kind,
		ModelID:      model,
		EndpointPath: endpoint,
		Path:         path,
	}, nil
}
