package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

// TaskRegistry maps handler names to scheduled tasks.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]ports.Task
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]ports.Task)}
}

func (r *TaskRegistry) Register(task ports.Task) error {
	if task == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil task")
	}
	name := task.Name()
	if name == "" {
		return errors.New(errors.CodeInternal, "task name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[name]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("task '%s' already registered", name))
	}
	r.tasks[name] = task
	return nil
}

func (r *TaskRegistry) Get(name string) (ports.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[name]
	if !exists {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("task '%s' not found", name),
			fmt.Sprintf("Use one of: %v", r.namesLocked()))
	}
	return task, nil
}

func (r *TaskRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *TaskRegistry) namesLocked() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
