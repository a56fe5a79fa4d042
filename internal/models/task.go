package models

import (
	"time"
)

// TaskType is the kind of micro-task a user can complete
type TaskType string

const (
	TaskTypeAd      TaskType = "AD"
	TaskTypePTC     TaskType = "PTC"
	TaskTypeSpin    TaskType = "SPIN"
	TaskTypeCheckIn TaskType = "CHECKIN"
)

// Valid reports whether t is one of the known task types
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeAd, TaskTypePTC, TaskTypeSpin, TaskTypeCheckIn:
		return true
	}
	return false
}

// Task is a completable unit of work. The reward of SPIN tasks is drawn at completion time.
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Reward          int        `json:"reward"`
	Type            TaskType   `json:"type"`
	CooldownMinutes int        `json:"cooldownMinutes"`
	LastCompleted   *time.Time `json:"lastCompleted,omitempty"` // Most recent completion by anyone
}

// Cooldown returns the cooldown as a duration
func (t *Task) Cooldown() time.Duration {
	return time.Duration(t.CooldownMinutes) * time.Minute
}

// TaskInput carries the fields an admin supplies when creating a task
type TaskInput struct {
	Title           string   `json:"title" binding:"required"`
	Reward          int      `json:"reward"`
	Type            TaskType `json:"type" binding:"required"`
	CooldownMinutes int      `json:"cooldownMinutes"`
}

// TaskPatch carries the fields an admin may change; nil fields are left untouched
type TaskPatch struct {
	Title           *string   `json:"title"`
	Reward          *int      `json:"reward"`
	Type            *TaskType `json:"type"`
	CooldownMinutes *int      `json:"cooldownMinutes"`
}

// AdView is a claimable reward issued after a successful ad or PTC view
type AdView struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TaskID     string    `json:"taskId"`
	NetworkID  string    `json:"networkId,omitempty"`
	Network    string    `json:"network,omitempty"`
	AdUnitID   string    `json:"adUnitId,omitempty"`
	IssuedAt   time.Time `json:"issuedAt"`
	ClaimAfter time.Time `json:"claimAfter"`
}

// TaskStartResponse is returned by POST /tasks/:id/start
type TaskStartResponse struct {
	Task        Task         `json:"task"`
	View        *AdView      `json:"view,omitempty"`
	Credited    *Transaction `json:"credited,omitempty"`
	Balance     int          `json:"balance"`
	StreakCount int          `json:"streakCount"`
}
