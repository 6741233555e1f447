package domain

import "time"

// StatusBucket is the canonical workflow bucket a raw board status maps to.
type StatusBucket int

const (
	StatusBacklog StatusBucket = iota
	StatusInProgress
	StatusValidation
	StatusDone
)

func (b StatusBucket) String() string {
	switch b {
	case StatusBacklog:
		return "backlog"
	case StatusInProgress:
		return "in_progress"
	case StatusValidation:
		return "validation"
	case StatusDone:
		return "done"
	}
	return "unknown"
}

// Issue carries the fields shared by epics, tasks and subtasks.
// Instants are normalized to UTC at the adapter boundary.
type Issue struct {
	ID         string
	Key        string
	Name       string
	Type       string
	RawStatus  string
	CreatedAt  time.Time
	LastUpdate time.Time
}

type Epic struct {
	Issue
	Tasks []Task
}

type Task struct {
	Issue
	Assignee       string
	DueDate        *time.Time
	ResolutionDate *time.Time
	TimeSpent      *WorkDuration
	Subtasks       []Subtask
}

type Subtask struct {
	Issue
	Assignee       string
	DueDate        *time.Time
	ResolutionDate *time.Time
	TimeSpent      *WorkDuration
}

// Project is a reference to a Jira project. The upstream source returns
// projects most-recent-first; LastActivityAt is kept for recency only and
// the aggregator never re-sorts by it.
type Project struct {
	ID             string
	Key            string
	Name           string
	LastActivityAt time.Time
}

// Snapshot is the immutable issue tree the engine aggregates over. It is
// fetched once per report request and never mutated. Tasks that belong to
// no epic keep full task semantics under Unparented.
type Snapshot struct {
	Project    Project
	Epics      []Epic
	Unparented []Task
}

// UserIntegration holds a user's stored issue-tracker credentials.
type UserIntegration struct {
	ID       string
	UserID   string
	Provider string
	Host     string
	Email    string
	APIToken string
}
