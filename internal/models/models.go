package models

import "time"

// Project represents a tracked project in the workspace
type Project struct {
	ID             int64
	Name           string
	Path           string
	Description    string
	TechStack      []string
	Status         string // active, paused, archived, completed
	Priority       int    // 0-100
	HasGit         bool
	LastActivityAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Goal represents a strategic objective within a project
type Goal struct {
	ID           int64
	ProjectID    int64
	Title        string
	Description  string
	Category     string     // feature, bugfix, refactor, docs, ops
	Priority     int        // 0-100
	Status       string     // active, completed, cancelled
	TargetDate   *time.Time // date only
	ParentGoalID *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Todo represents an actionable work item
type Todo struct {
	ID             int64
	ProjectID      int64
	GoalID         *int64
	Title          string
	Description    string
	Status         string  // open, in_progress, blocked, completed, cancelled
	PriorityScore  float64 // computed, 0-100
	EffortEstimate string  // S, M, L, XL or empty
	Tags           []string
	BlockedBy      []int64    // IDs of todos blocking this one
	DueDate        *time.Time // date only
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Commit represents a git commit synced from a project repository
type Commit struct {
	ID           int64
	ProjectID    int64
	SHA          string
	Message      string
	Author       string
	CommittedAt  time.Time
	FilesChanged int
	Insertions   int
	Deletions    int
	TodoIDs      []int64 // todos referenced in the commit message
	CreatedAt    time.Time
}

// Metric is a daily snapshot value for trend queries
type Metric struct {
	ID         int64
	ProjectID  int64
	Type       string
	Value      float64
	RecordedAt time.Time // date only
	CreatedAt  time.Time
}
