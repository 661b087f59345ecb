package models

import "time"

// Project groups tasks. Deleting a project leaves its tasks in place.
type Project struct {
	ID          string
	OwnerID     string
	Name        string
	Description *string
	CreatedAt   time.Time
}
