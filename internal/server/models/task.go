package models

import (
	"fmt"
	"time"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority validates s as a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// Task is a todo item owned by one account. DeferredUntil is set while the
// task is snoozed; a task whose DeferredUntil has passed is active again.
type Task struct {
	ID              string
	OwnerID         string
	ProjectID       *string
	Title           string
	Priority        Priority
	DurationMinutes int
	CreatedAt       time.Time
	DeferredUntil   *time.Time
}

// Deferred reports whether the task is hidden from the active list at now.
func (t *Task) Deferred(now time.Time) bool {
	return t.DeferredUntil != nil && t.DeferredUntil.After(now)
}
