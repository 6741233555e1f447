package analytics

import "github.com/LucasBarbosa257/Valmore/internal/domain"

// ResolveTimeSpent returns the effective time spent on a subtask. A subtask
// without its own registration reads the parent task's recorded time; the
// second return flags that inheritance so reports can disclose it. The
// parent value is read, never moved.
func ResolveTimeSpent(sub domain.Subtask, parent domain.Task) (domain.WorkDuration, bool) {
	if sub.TimeSpent != nil {
		return *sub.TimeSpent, false
	}
	if parent.TimeSpent != nil {
		return *parent.TimeSpent, true
	}
	return 0, false
}

// TaskTotal sums the task's own recorded time with each subtask's own
// non-inherited time. Inherited values are excluded: a task with recorded
// time T and three subtasks with no registration totals T, not 4T.
func TaskTotal(task domain.Task) domain.WorkDuration {
	var total domain.WorkDuration
	if task.TimeSpent != nil {
		total = *task.TimeSpent
	}
	for _, sub := range task.Subtasks {
		d, inherited := ResolveTimeSpent(sub, task)
		if !inherited {
			total = total.Add(d)
		}
	}
	return total
}
