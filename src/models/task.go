package models

import "time"

// TaskStatus is the lifecycle state of a tracked task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// -----------------------------------------------------------------------------

// Terminal reports whether no further transitions are allowed.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Rank orders statuses so that transitions only move forward.
func (s TaskStatus) Rank() int {
	switch s {
	case TaskPending:
		return 0
	case TaskRunning:
		return 1
	case TaskCompleted, TaskFailed:
		return 2
	}
	return -1
}

// -----------------------------------------------------------------------------

// MTaskProgress is the observable state of one orchestration invocation.
type MTaskProgress struct {
	ID          string         `json:"task_id"`
	Type        string         `json:"task_type"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status"`
	Progress    int            `json:"progress"`
	Message     string         `json:"message"`
	Result      *MUpdateResult `json:"result,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// MTaskUpdate is a partial update; nil fields are left untouched.
type MTaskUpdate struct {
	Status   *TaskStatus
	Progress *int
	Message  *string
	Result   *MUpdateResult
}

// -----------------------------------------------------------------------------

// Running, Completed, Failed and Progress build the common task updates.
func RunningUpdate(message string) MTaskUpdate {
	s := TaskRunning
	return MTaskUpdate{Status: &s, Message: &message}
}

func CompletedUpdate(message string, result *MUpdateResult) MTaskUpdate {
	s := TaskCompleted
	p := 100
	return MTaskUpdate{Status: &s, Progress: &p, Message: &message, Result: result}
}

func FailedUpdate(message string, result *MUpdateResult) MTaskUpdate {
	s := TaskFailed
	return MTaskUpdate{Status: &s, Message: &message, Result: result}
}

func ProgressUpdate(progress int, message string) MTaskUpdate {
	return MTaskUpdate{Progress: &progress, Message: &message}
}
