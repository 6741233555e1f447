package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

// UnassignedBucket groups work items that have no assignee. They are always
// reported, never dropped.
const UnassignedBucket = "Unassigned"

// Config carries the per-call knobs of the aggregator. Passing them
// explicitly (including "now") keeps Aggregate a pure function: the same
// snapshot and config always produce byte-identical metrics.
type Config struct {
	Statuses  StatusMap
	Now       time.Time
	Window    time.Duration
	Lookahead time.Duration
}

const (
	DefaultWindow    = 7 * 24 * time.Hour
	DefaultLookahead = 3 * 24 * time.Hour
)

// Aggregate walks the epic→task→subtask tree once and produces the complete
// per-project metrics. Any unmapped status or structural inconsistency
// aborts the whole report; no partial metrics are returned.
func Aggregate(snap domain.Snapshot, cfg Config) (*domain.ProjectMetrics, error) {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	now := cfg.Now.UTC()
	windowFrom := now.Add(-cfg.Window)
	eval := RiskEvaluator{Now: now, Lookahead: cfg.Lookahead}

	m := &domain.ProjectMetrics{
		Project:     snap.Project,
		GeneratedAt: now,
		Window:      domain.Period{From: windowFrom, To: now},
	}

	seenIDs := map[string]string{}
	seenKeys := map[string]string{}
	byAssignee := map[string]*domain.AssigneeRollup{}
	byType := map[string]domain.WorkDuration{}
	inWindow := func(t time.Time) bool { return !t.Before(windowFrom) && !t.After(now) }

	checkIssue := func(is domain.Issue, resolution *time.Time) error {
		if prev, dup := seenIDs[is.ID]; dup {
			return &domain.InconsistentTreeError{Key: is.Key, Reason: fmt.Sprintf("id %s already used by %s", is.ID, prev)}
		}
		if prev, dup := seenKeys[is.Key]; dup {
			return &domain.InconsistentTreeError{Key: is.Key, Reason: fmt.Sprintf("key already used by id %s", prev)}
		}
		seenIDs[is.ID] = is.Key
		seenKeys[is.Key] = is.ID
		if resolution != nil && resolution.Before(is.CreatedAt) {
			return &domain.InconsistentTreeError{Key: is.Key, Reason: "resolution date precedes creation date"}
		}
		return nil
	}

	rollup := func(assignee string) *domain.AssigneeRollup {
		if assignee == "" {
			assignee = UnassignedBucket
		}
		r, ok := byAssignee[assignee]
		if !ok {
			r = &domain.AssigneeRollup{Assignee: assignee}
			byAssignee[assignee] = r
		}
		return r
	}

	count := func(bucket domain.StatusBucket) {
		switch bucket {
		case domain.StatusBacklog:
			m.Counts.Backlog++
		case domain.StatusInProgress:
			m.Counts.InProgress++
		case domain.StatusValidation:
			m.Counts.Validation++
		case domain.StatusDone:
			m.Counts.Done++
		}
	}

	history := func(is domain.Issue, due, resolution *time.Time) {
		if inWindow(is.CreatedAt) {
			m.CreatedInWindow++
		}
		if resolution == nil || !inWindow(*resolution) {
			return
		}
		m.CompletedInWindow++
		if due != nil {
			if resolution.After(*due) {
				m.ResolvedLate++
			} else {
				m.ResolvedOnTime++
			}
		}
	}

	processTask := func(task domain.Task) error {
		if err := checkIssue(task.Issue, task.ResolutionDate); err != nil {
			return err
		}
		taskBucket, err := cfg.Statuses.Classify(task.RawStatus)
		if err != nil {
			return err
		}
		subBuckets := make([]domain.StatusBucket, len(task.Subtasks))
		for i, sub := range task.Subtasks {
			b, err := cfg.Statuses.Classify(sub.RawStatus)
			if err != nil {
				return err
			}
			subBuckets[i] = b
		}

		count(taskBucket)
		history(task.Issue, task.DueDate, task.ResolutionDate)

		risk := eval.EvaluateTask(task, taskBucket, subBuckets)
		tr := rollup(task.Assignee)
		switch {
		case taskBucket == domain.StatusDone:
			tr.Completed++
		case taskBucket != domain.StatusBacklog:
			tr.InProgress++
		}
		if risk.Level != domain.RiskOnTrack {
			tr.AtRisk++
			m.Risks = append(m.Risks, domain.RiskEntry{
				Key: task.Key, Name: task.Name, Level: domain.LevelTask,
				Assignee: task.Assignee, DueDate: task.DueDate, Risk: risk,
			})
		}

		taskTime := TaskTotal(task)
		m.TotalTime = m.TotalTime.Add(taskTime)
		if task.TimeSpent != nil {
			byType[task.Type] += *task.TimeSpent
			tr.TimeSpent = tr.TimeSpent.Add(*task.TimeSpent)
		}
		if inWindow(task.LastUpdate) {
			m.Activities = append(m.Activities, domain.Activity{
				ID: task.ID, Key: task.Key, Name: task.Name, Type: task.Type,
				Level: domain.LevelTask, Assignee: task.Assignee, Bucket: taskBucket,
				LastUpdate: task.LastUpdate, DueDate: task.DueDate,
				ResolutionDate: task.ResolutionDate, TimeSpent: taskTime,
			})
		}

		bothRecorded := false
		for i, sub := range task.Subtasks {
			if err := checkIssue(sub.Issue, sub.ResolutionDate); err != nil {
				return err
			}
			subBucket := subBuckets[i]
			// A subtask's validation status is never reported as standalone
			// validation; it folds into in-progress and only the parent task
			// can represent the validation state.
			counted := subBucket
			if counted == domain.StatusValidation {
				counted = domain.StatusInProgress
			}
			count(counted)
			history(sub.Issue, sub.DueDate, sub.ResolutionDate)

			subRisk := eval.EvaluateSubtask(sub, task, subBucket, subBuckets)
			sr := rollup(sub.Assignee)
			switch {
			case subBucket == domain.StatusDone:
				sr.Completed++
			case subBucket != domain.StatusBacklog:
				sr.InProgress++
			}
			if subRisk.Level != domain.RiskOnTrack {
				sr.AtRisk++
				m.Risks = append(m.Risks, domain.RiskEntry{
					Key: sub.Key, Name: sub.Name, Level: domain.LevelSubtask,
					Assignee: sub.Assignee, DueDate: sub.DueDate, Risk: subRisk,
				})
			}

			effective, inherited := ResolveTimeSpent(sub, task)
			if inherited {
				m.InheritedTime = append(m.InheritedTime, sub.Key)
			}
			if sub.TimeSpent != nil {
				byType[sub.Type] += *sub.TimeSpent
				sr.TimeSpent = sr.TimeSpent.Add(*sub.TimeSpent)
				if task.TimeSpent != nil {
					bothRecorded = true
				}
			}
			if inWindow(sub.LastUpdate) {
				m.Activities = append(m.Activities, domain.Activity{
					ID: sub.ID, Key: sub.Key, Name: sub.Name, Type: sub.Type,
					Level: domain.LevelSubtask, Assignee: sub.Assignee, Bucket: counted,
					LastUpdate: sub.LastUpdate, DueDate: sub.DueDate,
					ResolutionDate: sub.ResolutionDate, TimeSpent: effective,
					TimeInherited: inherited,
				})
			}
		}
		if bothRecorded {
			m.BothRecorded = append(m.BothRecorded, task.Key)
		}
		return nil
	}

	for _, epic := range snap.Epics {
		if err := checkIssue(epic.Issue, nil); err != nil {
			return nil, err
		}
		epicBucket, err := cfg.Statuses.Classify(epic.RawStatus)
		if err != nil {
			return nil, err
		}
		count(epicBucket)
		if inWindow(epic.LastUpdate) {
			m.Activities = append(m.Activities, domain.Activity{
				ID: epic.ID, Key: epic.Key, Name: epic.Name, Type: epic.Type,
				Level: domain.LevelEpic, Bucket: epicBucket, LastUpdate: epic.LastUpdate,
			})
		}
		for _, task := range epic.Tasks {
			if err := processTask(task); err != nil {
				return nil, err
			}
		}
	}
	for _, task := range snap.Unparented {
		if err := processTask(task); err != nil {
			return nil, err
		}
	}

	m.TotalIssues = m.Counts.Total()
	m.Distribution = distribution(m.Counts)

	for _, r := range byAssignee {
		m.Assignees = append(m.Assignees, *r)
	}
	sort.Slice(m.Assignees, func(i, j int) bool {
		a, b := m.Assignees[i].Assignee, m.Assignees[j].Assignee
		if (a == UnassignedBucket) != (b == UnassignedBucket) {
			return b == UnassignedBucket
		}
		return a < b
	})
	for t, d := range byType {
		m.TimeByType = append(m.TimeByType, domain.TypeTime{Type: t, Total: d})
	}
	sort.Slice(m.TimeByType, func(i, j int) bool { return m.TimeByType[i].Type < m.TimeByType[j].Type })
	sort.Slice(m.Risks, func(i, j int) bool { return m.Risks[i].Key < m.Risks[j].Key })
	sort.Strings(m.InheritedTime)
	sort.Strings(m.BothRecorded)
	sort.Slice(m.Activities, func(i, j int) bool {
		if !m.Activities[i].LastUpdate.Equal(m.Activities[j].LastUpdate) {
			return m.Activities[i].LastUpdate.After(m.Activities[j].LastUpdate)
		}
		return m.Activities[i].Key < m.Activities[j].Key
	})

	return m, nil
}

func distribution(c domain.StatusCounts) []domain.StatusShare {
	total := c.Total()
	shares := []domain.StatusShare{
		{Bucket: domain.StatusBacklog, Count: c.Backlog},
		{Bucket: domain.StatusInProgress, Count: c.InProgress},
		{Bucket: domain.StatusValidation, Count: c.Validation},
		{Bucket: domain.StatusDone, Count: c.Done},
	}
	if total == 0 {
		return shares
	}
	for i := range shares {
		shares[i].Percent = float64(shares[i].Count) * 100 / float64(total)
	}
	return shares
}
