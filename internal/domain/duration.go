package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// WorkDuration is elapsed work time in whole seconds. Integer arithmetic
// keeps sums exact; float conversions happen only when a caller asks for
// them. Decomposition into weeks/days follows the Jira time-tracking
// convention: 1 day = 8 hours, 1 week = 5 days.
type WorkDuration int64

const (
	Minute   WorkDuration = 60
	Hour     WorkDuration = 60 * Minute
	WorkDay  WorkDuration = 8 * Hour
	WorkWeek WorkDuration = 5 * WorkDay
)

func (d WorkDuration) Add(other WorkDuration) WorkDuration { return d + other }

func (d WorkDuration) IsZero() bool { return d == 0 }

func (d WorkDuration) Seconds() int64 { return int64(d) }

// Hours reports the duration in hours as a float. Display only; never fed
// back into arithmetic.
func (d WorkDuration) Hours() float64 { return float64(d) / float64(Hour) }

// String renders the canonical locale-free form, e.g. "1w 2h 30m".
// Zero renders as "0m".
func (d WorkDuration) String() string {
	if d == 0 {
		return "0m"
	}
	rest := d
	var parts []string
	for _, u := range []struct {
		size  WorkDuration
		label string
	}{{WorkWeek, "w"}, {WorkDay, "d"}, {Hour, "h"}, {Minute, "m"}} {
		if n := rest / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.label))
			rest -= n * u.size
		}
	}
	if rest > 0 {
		parts = append(parts, fmt.Sprintf("%ds", rest))
	}
	return strings.Join(parts, " ")
}

// ParseWorkDuration parses Jira time-tracking strings such as
// "1w 2d 3h 30m" or "45m". Tokens may appear in any order; an unknown
// unit or malformed token is an error.
func ParseWorkDuration(s string) (WorkDuration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	var total WorkDuration
	for _, tok := range strings.Fields(s) {
		if len(tok) < 2 {
			return 0, fmt.Errorf("malformed duration token %q", tok)
		}
		unit := tok[len(tok)-1]
		n, err := strconv.ParseInt(tok[:len(tok)-1], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("malformed duration token %q", tok)
		}
		switch unit {
		case 'w':
			total += WorkDuration(n) * WorkWeek
		case 'd':
			total += WorkDuration(n) * WorkDay
		case 'h':
			total += WorkDuration(n) * Hour
		case 'm':
			total += WorkDuration(n) * Minute
		case 's':
			total += WorkDuration(n)
		default:
			return 0, fmt.Errorf("unknown duration unit %q in %q", string(unit), tok)
		}
	}
	return total, nil
}
