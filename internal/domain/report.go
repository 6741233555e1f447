package domain

import "time"

// Intent is the classified depth of an incoming request.
type Intent int

const (
	IntentDirectFactual Intent = iota
	IntentPartialAnalytical
	IntentStrategicBroad
)

func (i Intent) String() string {
	switch i {
	case IntentDirectFactual:
		return "direct_factual"
	case IntentPartialAnalytical:
		return "partial_analytical"
	case IntentStrategicBroad:
		return "strategic_broad"
	}
	return "unknown"
}

// RiskLevel classifies a work item's deadline exposure.
type RiskLevel int

const (
	RiskOnTrack RiskLevel = iota
	RiskNearDeadline
	RiskOverdue
)

func (r RiskLevel) String() string {
	switch r {
	case RiskOnTrack:
		return "on_track"
	case RiskNearDeadline:
		return "near_deadline"
	case RiskOverdue:
		return "overdue"
	}
	return "unknown"
}

// DelayKind attributes an overdue item either to its assignee or to the
// validation process. Only meaningful when the level is RiskOverdue.
type DelayKind int

const (
	DelayNone DelayKind = iota
	AssigneeDelay
	ProcessDelay
)

func (d DelayKind) String() string {
	switch d {
	case AssigneeDelay:
		return "assignee_delay"
	case ProcessDelay:
		return "process_delay"
	case DelayNone:
		return "none"
	}
	return "unknown"
}

type Risk struct {
	Level RiskLevel
	Delay DelayKind
}

// IssueLevel tells which tier of the hierarchy an aggregated row came from.
type IssueLevel int

const (
	LevelEpic IssueLevel = iota
	LevelTask
	LevelSubtask
)

func (l IssueLevel) String() string {
	switch l {
	case LevelEpic:
		return "epic"
	case LevelTask:
		return "task"
	case LevelSubtask:
		return "subtask"
	}
	return "unknown"
}

// Period is the closed time window a report covers, in UTC.
type Period struct {
	From time.Time
	To   time.Time
}

type StatusCounts struct {
	Backlog    int
	InProgress int
	Validation int
	Done       int
}

func (c StatusCounts) Total() int {
	return c.Backlog + c.InProgress + c.Validation + c.Done
}

// StatusShare is one slice of the status distribution.
type StatusShare struct {
	Bucket  StatusBucket
	Count   int
	Percent float64
}

// AssigneeRollup aggregates per-person figures. Unassigned items land in an
// explicit bucket rather than being dropped.
type AssigneeRollup struct {
	Assignee   string
	Completed  int
	InProgress int
	AtRisk     int
	TimeSpent  WorkDuration
}

type TypeTime struct {
	Type  string
	Total WorkDuration
}

// RiskEntry is one at-risk work item with its attribution.
type RiskEntry struct {
	Key      string
	Name     string
	Level    IssueLevel
	Assignee string
	DueDate  *time.Time
	Risk     Risk
}

// Activity is one issue whose last update falls inside the analyzed window.
type Activity struct {
	ID             string
	Key            string
	Name           string
	Type           string
	Level          IssueLevel
	Assignee       string
	Bucket         StatusBucket
	LastUpdate     time.Time
	DueDate        *time.Time
	ResolutionDate *time.Time
	TimeSpent      WorkDuration
	TimeInherited  bool
}

// ProjectMetrics is the aggregator's complete per-project output. Slices are
// sorted deterministically so the same snapshot and "now" always produce
// byte-identical results.
type ProjectMetrics struct {
	Project     Project
	GeneratedAt time.Time
	Window      Period

	Counts       StatusCounts
	Distribution []StatusShare
	TotalIssues  int

	Assignees []AssigneeRollup
	Risks     []RiskEntry

	TotalTime  WorkDuration
	TimeByType []TypeTime
	// InheritedTime lists subtask keys whose effective time came from the
	// parent task; the report must disclose the inheritance.
	InheritedTime []string
	// BothRecorded lists task keys where the task and at least one subtask
	// independently recorded time. Summed by default; flagged for review.
	BothRecorded []string

	Activities []Activity

	CompletedInWindow int
	CreatedInWindow   int
	ResolvedOnTime    int
	ResolvedLate      int
}

// Fact is one label/value answer row of a direct-factual report.
type Fact struct {
	Label string
	Value string
}

// Table is a renderer-agnostic comparison table.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// DirectAnswer is the minimal report shape: answer fields plus the analyzed
// period, no full section set.
type DirectAnswer struct {
	Facts   []Fact
	Tables  []Table
	Insight string
}

// PartialAnalysis carries a short summary plus comparison tables.
type PartialAnalysis struct {
	Title    string
	Summary  string
	Tables   []Table
	Insights []string
}

// StrategicSections is the full fixed section set. Every field is populated
// from aggregator output; no section may be omitted and the detail table
// holds every relevant activity.
type StrategicSections struct {
	Summary         string
	Status          Table
	TeamPerformance Table
	RisksDelays     Table
	TimeEffort      Table
	TimeNotes       []string
	HistoryTrends   Table
	Detail          Table
	Insights        []string
	Conclusion      string
}

// Report is the engine's structured output. Exactly one of Direct, Partial
// or Strategic is set, matching Intent.
type Report struct {
	Intent    Intent
	Period    Period
	Project   Project
	Metrics   *ProjectMetrics
	Direct    *DirectAnswer
	Partial   *PartialAnalysis
	Strategic *StrategicSections
}
