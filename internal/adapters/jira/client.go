package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

// Client talks to Jira Cloud REST v3 on behalf of one integration: basic
// auth with the account email and API token against
// https://{host}.atlassian.net.
type Client struct {
	host  string
	email string
	token string
	http  *http.Client
	log   zerolog.Logger
}

func NewClient(integ domain.UserIntegration, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		host:  integ.Host,
		email: integ.Email,
		token: integ.APIToken,
		http:  &http.Client{Timeout: timeout},
		log:   log,
	}
}

func (c *Client) apiURL(endpoint string, q url.Values) string {
	u := fmt.Sprintf("https://%s.atlassian.net/rest/api/3/%s", c.host, endpoint)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// doJSON issues a GET and decodes the body into out, retrying on 429/5xx
// with exponential backoff.
func (c *Client) doJSON(ctx context.Context, u string, out any) error {
	if c.host == "" {
		return errors.New("jira: empty host")
	}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.email, c.token)
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
		} else {
			b, rerr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if rerr != nil {
				return rerr
			}
			if resp.StatusCode >= 300 {
				err := fmt.Errorf("jira api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
				if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
					return err
				}
				lastErr = err
			} else {
				return json.Unmarshal(b, out)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
		}
	}
	return lastErr
}

// RecentProjects returns the user's projects, most recent first, as the
// source orders them. The order is preserved downstream.
func (c *Client) RecentProjects(ctx context.Context) ([]domain.Project, error) {
	var raw []map[string]any
	if err := c.doJSON(ctx, c.apiURL("project/recent", nil), &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.Project{
			ID:   toStr(p["id"]),
			Key:  toStr(p["key"]),
			Name: toStr(p["name"]),
		})
	}
	return out, nil
}

const searchFields = "summary,issuetype,status,assignee,duedate,resolutiondate,timetracking,created,updated,parent"

// IssueTree fetches every issue of the project and assembles the
// epic→task→subtask hierarchy from parent links. Tasks without an epic are
// returned separately; a subtask pointing at a missing parent is a tree
// inconsistency surfaced as an error, never dropped.
func (c *Client) IssueTree(ctx context.Context, projectID string) ([]domain.Epic, []domain.Task, error) {
	if projectID == "" {
		return nil, nil, errors.New("jira: empty project id")
	}
	flat, err := c.searchAll(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return assembleTree(flat)
}

// flatIssue is one search hit before hierarchy assembly.
type flatIssue struct {
	domain.Issue
	assignee   string
	due        *time.Time
	resolution *time.Time
	timeSpent  *domain.WorkDuration
	parentID   string
	isEpic     bool
	isSubtask  bool
}

func (c *Client) searchAll(ctx context.Context, projectID string) ([]flatIssue, error) {
	var out []flatIssue
	startAt := 0
	for {
		q := url.Values{}
		q.Set("jql", fmt.Sprintf("project=%s ORDER BY created ASC", projectID))
		q.Set("fields", searchFields)
		q.Set("startAt", fmt.Sprint(startAt))
		q.Set("maxResults", "100")
		var page struct {
			StartAt    int              `json:"startAt"`
			MaxResults int              `json:"maxResults"`
			Total      int              `json:"total"`
			Issues     []map[string]any `json:"issues"`
		}
		if err := c.doJSON(ctx, c.apiURL("search", q), &page); err != nil {
			return nil, err
		}
		for _, im := range page.Issues {
			fi, err := mapIssue(im)
			if err != nil {
				return nil, err
			}
			out = append(out, fi)
		}
		next := page.StartAt + len(page.Issues)
		if len(page.Issues) == 0 || next >= page.Total {
			break
		}
		startAt = next
	}
	return out, nil
}

func mapIssue(im map[string]any) (flatIssue, error) {
	fields, _ := im["fields"].(map[string]any)
	fi := flatIssue{}
	fi.ID = toStr(im["id"])
	fi.Key = toStr(im["key"])
	fi.Name = toStr(fields["summary"])
	if it, ok := fields["issuetype"].(map[string]any); ok {
		fi.Type = toStr(it["name"])
		fi.isSubtask, _ = it["subtask"].(bool)
		fi.isEpic = strings.EqualFold(fi.Type, "epic") || strings.EqualFold(fi.Type, "épico")
	}
	if st, ok := fields["status"].(map[string]any); ok {
		fi.RawStatus = toStr(st["name"])
	}
	if as, ok := fields["assignee"].(map[string]any); ok {
		fi.assignee = toStr(as["displayName"])
	}
	if created := parseTimeUTC(fields["created"]); created != nil {
		fi.CreatedAt = *created
	}
	if updated := parseTimeUTC(fields["updated"]); updated != nil {
		fi.LastUpdate = *updated
	}
	fi.due = parseTimeUTC(fields["duedate"])
	fi.resolution = parseTimeUTC(fields["resolutiondate"])
	if tt, ok := fields["timetracking"].(map[string]any); ok {
		if raw := toStr(tt["timeSpent"]); raw != "" {
			d, err := domain.ParseWorkDuration(raw)
			if err != nil {
				return fi, fmt.Errorf("issue %s: %w", fi.Key, err)
			}
			fi.timeSpent = &d
		}
	}
	if pa, ok := fields["parent"].(map[string]any); ok {
		fi.parentID = toStr(pa["id"])
	}
	return fi, nil
}

func assembleTree(flat []flatIssue) ([]domain.Epic, []domain.Task, error) {
	epicIdx := map[string]int{}
	var epics []domain.Epic
	for _, fi := range flat {
		if fi.isEpic {
			epicIdx[fi.ID] = len(epics)
			epics = append(epics, domain.Epic{Issue: fi.Issue})
		}
	}
	// Tasks keep source order within their epic; subtasks within their task.
	type taskSlot struct {
		task    domain.Task
		epicPos int // -1 for unparented
	}
	taskIdx := map[string]int{}
	var tasks []taskSlot
	for _, fi := range flat {
		if fi.isEpic || fi.isSubtask {
			continue
		}
		epicPos := -1
		if fi.parentID != "" {
			if pos, ok := epicIdx[fi.parentID]; ok {
				epicPos = pos
			}
		}
		taskIdx[fi.ID] = len(tasks)
		tasks = append(tasks, taskSlot{task: toTask(fi), epicPos: epicPos})
	}
	for _, fi := range flat {
		if !fi.isSubtask {
			continue
		}
		pos, ok := taskIdx[fi.parentID]
		if !ok {
			return nil, nil, &domain.InconsistentTreeError{Key: fi.Key, Reason: "subtask parent not found in project"}
		}
		t := &tasks[pos].task
		t.Subtasks = append(t.Subtasks, domain.Subtask{
			Issue:          fi.Issue,
			Assignee:       fi.assignee,
			DueDate:        fi.due,
			ResolutionDate: fi.resolution,
			TimeSpent:      fi.timeSpent,
		})
	}
	var unparented []domain.Task
	for _, slot := range tasks {
		if slot.epicPos >= 0 {
			epics[slot.epicPos].Tasks = append(epics[slot.epicPos].Tasks, slot.task)
		} else {
			unparented = append(unparented, slot.task)
		}
	}
	return epics, unparented, nil
}

func toTask(fi flatIssue) domain.Task {
	return domain.Task{
		Issue:          fi.Issue,
		Assignee:       fi.assignee,
		DueDate:        fi.due,
		ResolutionDate: fi.resolution,
		TimeSpent:      fi.timeSpent,
	}
}

func toStr(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// parseTimeUTC normalizes Jira instants (and date-only due dates) to UTC.
func parseTimeUTC(v any) *time.Time {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05-0700",
		"2006-01-02",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			tt := t.UTC()
			return &tt
		}
	}
	return nil
}
