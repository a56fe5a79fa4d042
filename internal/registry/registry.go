// Package registry is the task catalog container: admin CRUD plus the
// listing and search used by earners.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/models"
)

var (
	ErrInvalidTask  = errors.New("invalid task")
	ErrTaskNotFound = errors.New("task not found")
)

// DefaultTasks is the catalog seeded on first start
func DefaultTasks() []models.Task {
	return []models.Task{
		{ID: "1", Title: "Watch Video Ad", Reward: 50, Type: models.TaskTypeAd, CooldownMinutes: 5},
		{ID: "2", Title: "PTC: Visit Website", Reward: 30, Type: models.TaskTypePTC, CooldownMinutes: 10},
		{ID: "3", Title: "Daily Check-in", Reward: 100, Type: models.TaskTypeCheckIn, CooldownMinutes: 1440},
		{ID: "4", Title: "Lucky Spin", Reward: 0, Type: models.TaskTypeSpin, CooldownMinutes: 15},
	}
}

// Registry holds the ordered task catalog. It is not safe for concurrent use;
// the store serialises access.
type Registry struct {
	tasks []models.Task
}

// New creates a registry over a copy of tasks
func New(tasks []models.Task) *Registry {
	return &Registry{tasks: append([]models.Task(nil), tasks...)}
}

// Validate checks the required task fields
func Validate(title string, reward int, taskType models.TaskType, cooldown int) error {
	switch {
	case strings.TrimSpace(title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	case reward < 0:
		return fmt.Errorf("%w: reward must not be negative", ErrInvalidTask)
	case !taskType.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTask, taskType)
	case cooldown < 0:
		return fmt.Errorf("%w: cooldown must not be negative", ErrInvalidTask)
	}
	return nil
}

// Create validates in and appends a task with the given id
func (r *Registry) Create(id string, in models.TaskInput) (models.Task, error) {
	if err := Validate(in.Title, in.Reward, in.Type, in.CooldownMinutes); err != nil {
		return models.Task{}, err
	}
	task := models.Task{
		ID:              id,
		Title:           strings.TrimSpace(in.Title),
		Reward:          in.Reward,
		Type:            in.Type,
		CooldownMinutes: in.CooldownMinutes,
	}
	r.tasks = append(r.tasks, task)
	return task, nil
}

// Update merges the non-nil fields of patch into the task with the given id
func (r *Registry) Update(id string, patch models.TaskPatch) (models.Task, error) {
	idx := r.index(id)
	if idx < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	task := r.tasks[idx]
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Reward != nil {
		task.Reward = *patch.Reward
	}
	if patch.Type != nil {
		task.Type = *patch.Type
	}
	if patch.CooldownMinutes != nil {
		task.CooldownMinutes = *patch.CooldownMinutes
	}
	if err := Validate(task.Title, task.Reward, task.Type, task.CooldownMinutes); err != nil {
		return models.Task{}, err
	}
	r.tasks[idx] = task
	return task, nil
}

// Delete removes the task and reports whether it existed
func (r *Registry) Delete(id string) bool {
	idx := r.index(id)
	if idx < 0 {
		return false
	}
	r.tasks = append(r.tasks[:idx], r.tasks[idx+1:]...)
	return true
}

// Get returns the task with the given id
func (r *Registry) Get(id string) (models.Task, bool) {
	idx := r.index(id)
	if idx < 0 {
		return models.Task{}, false
	}
	return r.tasks[idx], true
}

// MarkCompleted records the latest completion time on the task
func (r *Registry) MarkCompleted(id string, at time.Time) {
	if idx := r.index(id); idx >= 0 {
		r.tasks[idx].LastCompleted = &at
	}
}

// List returns a copy of the catalog in insertion order
func (r *Registry) List() []models.Task {
	return append([]models.Task{}, r.tasks...)
}

// Search matches term case-insensitively against title and type.
// An empty term returns the whole catalog.
func (r *Registry) Search(term string) []models.Task {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return r.List()
	}
	out := []models.Task{}
	for _, t := range r.tasks {
		if strings.Contains(strings.ToLower(t.Title), term) || strings.Contains(strings.ToLower(string(t.Type)), term) {
			out = append(out, t)
		}
	}
	return out
}

// CountByType tallies the catalog per task type
func (r *Registry) CountByType() map[models.TaskType]int {
	counts := make(map[models.TaskType]int)
	for _, t := range r.tasks {
		counts[t.Type]++
	}
	return counts
}

// Len returns the number of tasks
func (r *Registry) Len() int {
	return len(r.tasks)
}

func (r *Registry) index(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
