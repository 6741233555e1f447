package analytics

import (
	"time"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

// RiskEvaluator classifies deadline exposure for tasks, absorbing
// subtask-level validation noise into the parent's risk state. It works on
// pre-classified buckets so unknown statuses are caught once, up front, by
// the aggregator.
type RiskEvaluator struct {
	Now       time.Time
	Lookahead time.Duration
}

// EvaluateTask applies the task rules in order:
//  1. Done tasks are never at risk.
//  2. Overdue tasks in Validation carry a process delay, not an assignee
//     delay.
//  3. While any subtask sits in Validation and the task's own due date has
//     not passed, the task is not flagged even if subtask due dates passed.
//  4. Otherwise overdue / near-deadline / on-track against the due date.
func (e RiskEvaluator) EvaluateTask(task domain.Task, bucket domain.StatusBucket, subBuckets []domain.StatusBucket) domain.Risk {
	if bucket == domain.StatusDone {
		return domain.Risk{Level: domain.RiskOnTrack}
	}
	if bucket == domain.StatusValidation {
		if task.DueDate != nil && task.DueDate.Before(e.Now) {
			return domain.Risk{Level: domain.RiskOverdue, Delay: domain.ProcessDelay}
		}
		return domain.Risk{Level: domain.RiskOnTrack}
	}
	if hasValidation(subBuckets) && !duePassed(task.DueDate, e.Now) {
		return domain.Risk{Level: domain.RiskOnTrack}
	}
	return e.againstDueDate(task.DueDate, domain.AssigneeDelay)
}

// EvaluateSubtask classifies a subtask through its parent, never in
// isolation. A subtask whose raw status maps to Validation is folded into
// InProgress for counting, and any delay on it belongs to the review
// process. While the parent has validation noise and its own due date holds,
// the subtask is shielded entirely.
func (e RiskEvaluator) EvaluateSubtask(sub domain.Subtask, parent domain.Task, bucket domain.StatusBucket, siblingBuckets []domain.StatusBucket) domain.Risk {
	if bucket == domain.StatusDone {
		return domain.Risk{Level: domain.RiskOnTrack}
	}
	if hasValidation(siblingBuckets) && !duePassed(parent.DueDate, e.Now) {
		return domain.Risk{Level: domain.RiskOnTrack}
	}
	delay := domain.AssigneeDelay
	if bucket == domain.StatusValidation {
		delay = domain.ProcessDelay
	}
	return e.againstDueDate(sub.DueDate, delay)
}

func (e RiskEvaluator) againstDueDate(due *time.Time, overdueKind domain.DelayKind) domain.Risk {
	if due == nil {
		return domain.Risk{Level: domain.RiskOnTrack}
	}
	if due.Before(e.Now) {
		return domain.Risk{Level: domain.RiskOverdue, Delay: overdueKind}
	}
	if e.Lookahead > 0 && due.Sub(e.Now) <= e.Lookahead {
		return domain.Risk{Level: domain.RiskNearDeadline}
	}
	return domain.Risk{Level: domain.RiskOnTrack}
}

func hasValidation(buckets []domain.StatusBucket) bool {
	for _, b := range buckets {
		if b == domain.StatusValidation {
			return true
		}
	}
	return false
}

func duePassed(due *time.Time, now time.Time) bool {
	return due != nil && due.Before(now)
}
