package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyProject signals that the upstream source returned no projects for
// the user. Distinct from a fetch failure: the integration worked, there is
// simply nothing to report on.
var ErrEmptyProject = errors.New("no projects available for user")

// UnknownStatusError is returned when a raw board status has no entry in the
// configured status map. Classification never defaults silently; a missing
// mapping aborts the report so misconfiguration cannot corrupt aggregates.
type UnknownStatusError struct {
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unmapped issue status %q", e.Status)
}

// InconsistentTreeError reports a structural violation in the snapshot,
// naming the offending issue.
type InconsistentTreeError struct {
	Key    string
	Reason string
}

func (e *InconsistentTreeError) Error() string {
	return fmt.Sprintf("inconsistent issue tree at %s: %s", e.Key, e.Reason)
}

// UpstreamFetchError wraps a failure or timeout while fetching the project
// list or the issue tree. The engine never receives a partial tree; the
// whole report is aborted instead.
type UpstreamFetchError struct {
	Op  string
	Err error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("upstream fetch failed (%s): %v", e.Op, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }
