package analytics

import (
    "fmt"
    "strings"
    "testing"
    "time"

    "github.com/LucasBarbosa257/Valmore/internal/domain"
)

// plainFormatter keeps report tests independent from the locale renderer.
type plainFormatter struct{}

func (plainFormatter) Instant(t time.Time) string { return t.Format("2006-01-02 15:04") }
func (plainFormatter) OptionalInstant(t *time.Time) string {
    if t == nil {
        return "-"
    }
    return t.Format("2006-01-02 15:04")
}
func (plainFormatter) Duration(d domain.WorkDuration) string { return d.String() }
func (plainFormatter) Percent(p float64) string              { return fmt.Sprintf("%.1f%%", p) }

func buildMetrics(t *testing.T) *domain.ProjectMetrics {
    t.Helper()
    m, err := Aggregate(fixtureSnapshot(), aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    return m
}

func TestBuildPicksExactlyOneShape(t *testing.T) {
    b := NewReportBuilder(plainFormatter{})
    m := buildMetrics(t)
    cases := []struct {
        intent domain.Intent
        check  func(r *domain.Report) bool
    }{
        {domain.IntentDirectFactual, func(r *domain.Report) bool {
            return r.Direct != nil && r.Partial == nil && r.Strategic == nil
        }},
        {domain.IntentPartialAnalytical, func(r *domain.Report) bool {
            return r.Direct == nil && r.Partial != nil && r.Strategic == nil
        }},
        {domain.IntentStrategicBroad, func(r *domain.Report) bool {
            return r.Direct == nil && r.Partial == nil && r.Strategic != nil
        }},
    }
    for _, c := range cases {
        r := b.Build(m, c.intent)
        if !c.check(r) {
            t.Fatalf("intent %v produced wrong shape", c.intent)
        }
    }
}

func TestStrategicSectionsComplete(t *testing.T) {
    b := NewReportBuilder(plainFormatter{})
    s := b.Build(buildMetrics(t), domain.IntentStrategicBroad).Strategic
    if s.Summary == "" || s.Conclusion == "" {
        t.Fatalf("summary and conclusion are mandatory")
    }
    if len(s.Status.Rows) != 4 {
        t.Fatalf("status table rows = %d, want 4 buckets", len(s.Status.Rows))
    }
    if len(s.TeamPerformance.Rows) != 3 {
        t.Fatalf("team table rows = %d, want 3 assignees", len(s.TeamPerformance.Rows))
    }
    if len(s.Insights) == 0 {
        t.Fatalf("strategic report must carry insights")
    }
}

func TestDetailTableListsEveryWindowActivity(t *testing.T) {
    b := NewReportBuilder(plainFormatter{})
    m := buildMetrics(t)
    s := b.Build(m, domain.IntentStrategicBroad).Strategic
    if len(s.Detail.Rows) != len(m.Activities) {
        t.Fatalf("detail rows = %d, want %d (no truncation)", len(s.Detail.Rows), len(m.Activities))
    }
    found := false
    for _, row := range s.Detail.Rows {
        if strings.Contains(row[0], "PRJ-3") {
            found = true
            if !strings.Contains(row[len(row)-1], "herdado da task principal") {
                t.Fatalf("inherited time must be disclosed, got %q", row[len(row)-1])
            }
        }
    }
    if !found {
        t.Fatalf("PRJ-3 missing from detail table")
    }
}

func TestRiskTableSeparatesProcessDelay(t *testing.T) {
    b := NewReportBuilder(plainFormatter{})
    m := buildMetrics(t)
    // Push the finished task into overdue validation to exercise the
    // process-delay wording.
    m.Risks = append(m.Risks, domain.RiskEntry{
        Key: "PRJ-9", Name: "Homologação", Level: domain.LevelTask,
        Risk: domain.Risk{Level: domain.RiskOverdue, Delay: domain.ProcessDelay},
    })
    s := b.Build(m, domain.IntentStrategicBroad).Strategic
    var labels []string
    for _, row := range s.RisksDelays.Rows {
        labels = append(labels, row[len(row)-1])
    }
    joined := strings.Join(labels, ";")
    if !strings.Contains(joined, "Atrasada no processo de validação") {
        t.Fatalf("process delay wording missing: %v", labels)
    }
    if !strings.Contains(joined, "Atrasada") {
        t.Fatalf("assignee delay wording missing: %v", labels)
    }
}

func TestTimeNotesDiscloseInheritanceAndDoubleRecording(t *testing.T) {
    b := NewReportBuilder(plainFormatter{})
    s := b.Build(buildMetrics(t), domain.IntentStrategicBroad).Strategic
    notes := strings.Join(s.TimeNotes, ";")
    if !strings.Contains(notes, "PRJ-3") || !strings.Contains(notes, "herdado") {
        t.Fatalf("inheritance note missing: %v", s.TimeNotes)
    }
    if !strings.Contains(notes, "PRJ-2") || !strings.Contains(notes, "somados") {
        t.Fatalf("double-recording note missing: %v", s.TimeNotes)
    }
}

func TestDirectAnswerFacts(t *testing.T) {
    b := NewReportBuilder(plainFormatter{})
    d := b.Build(buildMetrics(t), domain.IntentDirectFactual).Direct
    if len(d.Facts) != 4 {
        t.Fatalf("facts = %d, want 4", len(d.Facts))
    }
    if d.Facts[1].Value != "2" {
        t.Fatalf("completed fact = %q, want 2", d.Facts[1].Value)
    }
    if d.Insight == "" || !strings.Contains(d.Insight, "Ana") {
        t.Fatalf("top completer insight missing, got %q", d.Insight)
    }
}

func TestUnassignedLabel(t *testing.T) {
    b := NewReportBuilder(plainFormatter{})
    s := b.Build(buildMetrics(t), domain.IntentStrategicBroad).Strategic
    last := s.TeamPerformance.Rows[len(s.TeamPerformance.Rows)-1]
    if last[0] != "Sem responsável" {
        t.Fatalf("unassigned row label = %q", last[0])
    }
}
