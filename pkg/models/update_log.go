package models

import "time"

// UpdateLogLimit caps the persisted refresh log to the most recent entries
const UpdateLogLimit = 10

// UpdateLogEntry records one scheduled or manual refresh attempt
type UpdateLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// SchedulerStatus is the synchronous status surface of the refresh scheduler
type SchedulerStatus struct {
	Active            bool            `json:"active"`
	Schedules         []string        `json:"schedules"`
	NextUpdates       []time.Time     `json:"next_updates"`
	LastUpdate        *UpdateLogEntry `json:"last_update,omitempty"`
	TotalUpdates      int             `json:"total_updates"`
	SuccessfulUpdates int             `json:"successful_updates"`
}
