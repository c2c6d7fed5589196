// Package model defines shared data structures for the crawler and the API.
package model

import (
	"encoding/json"
	"time"
)

// JobStatus mirrors the jobs.status column.
type JobStatus string

const (
	StatusActive  JobStatus = "active"
	StatusRemoved JobStatus = "removed"
)

// Listing is a normalised job record fetched from the MyCareersFuture API.
// JobUUID may be empty when the upstream record is malformed; such records
// are counted as skipped and never reach the store.
type Listing struct {
	JobUUID     string
	Title       string
	CompanyName string
	Location    string
	Description string
	Category    string
	Raw         json.RawMessage // original API payload, stored in jobs.raw_data (JSONB)
}

// Job is a stored listing as returned by the read API.
type Job struct {
	JobUUID     string    `json:"jobUuid"`
	Title       string    `json:"title"`
	CompanyName string    `json:"companyName,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Status      JobStatus `json:"status"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

// CrawlRun summarises one fetch-and-reconcile pass. FinishedAt stays nil
// until the run commits; a row with a nil FinishedAt marks a crashed or
// aborted run and is never reported as success.
type CrawlRun struct {
	RunID      string     `json:"runId"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
	Kind       string     `json:"kind"`
	Categories []string   `json:"categories"`
	TotalSeen  int        `json:"totalSeen"`
	Added      int        `json:"added"`
	Maintained int        `json:"maintained"`
	Removed    int        `json:"removed"`
	Skipped    int        `json:"skipped"`
}
