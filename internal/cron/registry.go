package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one unit of scheduled reconciliation work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs keyed by name, preserving registration order.
type Registry struct {
	order []string
	jobs  map[string]Job
}

// NewRegistry builds a registry from jobs. Nil jobs are skipped and a
// duplicate name is an error.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{jobs: map[string]Job{}}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds job under its name.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job name is required")
	}
	if _, exists := r.jobs[name]; exists {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.order = append(r.order, name)
	r.jobs[name] = job
	return nil
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.jobs[name])
	}
	return jobs
}

// Only returns a registry restricted to the named jobs. Blank names are
// ignored and an empty selection keeps every job.
func (r *Registry) Only(names ...string) (*Registry, error) {
	selected := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			selected = append(selected, name)
		}
	}
	if len(selected) == 0 {
		return r, nil
	}
	filtered := &Registry{jobs: map[string]Job{}}
	for _, name := range selected {
		job, ok := r.jobs[name]
		if !ok {
			return nil, fmt.Errorf("unknown cron job %q", name)
		}
		if err := filtered.Register(job); err != nil {
			return nil, err
		}
	}
	return filtered, nil
}
