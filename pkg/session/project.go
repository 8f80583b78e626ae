package session

import "time"

// Project is a named authoring workspace. Sessions reference projects only
// by convention; deleting a project does not delete its sessions.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
