package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/registry"
	"golang.org/x/exp/slog"
)

// Tasks lists the catalog, filtered by a case-insensitive title or type match
func (s *Store) Tasks(term string) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Search(term)
}

// Task returns the task with the given id
func (s *Store) Task(id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks.Get(id)
	if !ok {
		return models.Task{}, ErrNotFound
	}
	return task, nil
}

// CreateTask adds a task to the catalog under a fresh id
func (s *Store) CreateTask(in models.TaskInput) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.tasks.Create(s.newID(), in)
	if err != nil {
		return models.Task{}, err
	}
	s.persist(KeyTasks)
	s.publish(EventTasksChanged, "")
	slog.Info("Task created", "taskID", task.ID, "type", task.Type)
	return task, nil
}

// UpdateTask merges patch into an existing task
func (s *Store) UpdateTask(id string, patch models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.tasks.Update(id, patch)
	if errors.Is(err, registry.ErrTaskNotFound) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	s.persist(KeyTasks)
	s.publish(EventTasksChanged, "")
	return task, nil
}

// DeleteTask removes a task. It reports false, changing nothing, when the id is unknown.
func (s *Store) DeleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tasks.Delete(id) {
		return false
	}
	for key := range s.completions {
		if _, taskID := splitCompletionKey(key); taskID == id {
			delete(s.completions, key)
		}
	}
	s.persist(KeyTasks, KeyCompletions)
	s.publish(EventTasksChanged, "")
	slog.Info("Task deleted", "taskID", id)
	return true
}

// CheckCooldown fails with ErrTaskOnCooldown while the session user's last
// completion of the task is within its cooldown
func (s *Store) CheckCooldown(taskID string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.sessionIndex()
	if err != nil {
		return models.Task{}, err
	}
	task, ok := s.tasks.Get(taskID)
	if !ok {
		return models.Task{}, ErrNotFound
	}
	return task, s.cooldownLocked(s.users[idx].ID, task)
}

// CompleteTask credits amount to userID for taskID and starts the task's
// cooldown for that user. userID must still hold the session; the session and
// cooldown are re-checked under the lock.
func (s *Store) CompleteTask(userID, taskID string, amount int, description string) (models.User, models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.sessionIndex()
	if err != nil {
		return models.User{}, models.Transaction{}, err
	}
	if s.users[idx].ID != userID {
		return models.User{}, models.Transaction{}, ErrNoSession
	}
	task, ok := s.tasks.Get(taskID)
	if !ok {
		return models.User{}, models.Transaction{}, ErrNotFound
	}
	if err := s.cooldownLocked(userID, task); err != nil {
		return models.User{}, models.Transaction{}, err
	}

	user, tx, err := s.creditLocked(idx, amount, description, models.TransactionTypeEarn)
	if err != nil {
		return models.User{}, models.Transaction{}, err
	}
	s.completions[completionKey(userID, taskID)] = tx.Date
	s.tasks.MarkCompleted(taskID, tx.Date)
	s.persist(KeyTasks, KeyCompletions)
	return user, tx, nil
}

func (s *Store) cooldownLocked(userID string, task models.Task) error {
	last, ok := s.completions[completionKey(userID, task.ID)]
	if !ok || task.CooldownMinutes == 0 {
		return nil
	}
	if remaining := last.Add(task.Cooldown()).Sub(s.clock()); remaining > 0 {
		return fmt.Errorf("%w: available again in %s", ErrTaskOnCooldown, remaining.Round(time.Second))
	}
	return nil
}

func completionKey(userID, taskID string) string {
	return userID + "|" + taskID
}

func splitCompletionKey(key string) (userID, taskID string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
