package models

import "time"

// Analyst is an API user allowed to trigger runs and read results.
type Analyst struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
