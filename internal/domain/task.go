package domain

import "time"

// Task is a to-do item.
type Task struct {
	ID          string
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Completed *bool
	Limit     int
	Offset    int
}
