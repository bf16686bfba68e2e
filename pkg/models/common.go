package models

import (
	"time"

	"github.com/google/uuid"
)

// Day is the length of one calendar day used for lookbacks and windows.
const Day = 24 * time.Hour

// NewUUID generates a new UUID string
func NewUUID() string {
	return uuid.New().String()
}

// Days converts a whole number of days to a duration.
func Days(n int) time.Duration {
	return time.Duration(n) * Day
}
