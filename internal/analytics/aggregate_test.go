package analytics

import (
    "errors"
    "reflect"
    "testing"
    "time"

    "github.com/LucasBarbosa257/Valmore/internal/domain"
)

var aggNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func aggConfig() Config {
    return Config{
        Statuses:  testStatuses(),
        Now:       aggNow,
        Window:    7 * 24 * time.Hour,
        Lookahead: 3 * 24 * time.Hour,
    }
}

func day(month, d, hour int) time.Time {
    return time.Date(2025, time.Month(month), d, hour, 0, 0, 0, time.UTC)
}

func issue(id, key, name, typ, status string, created, updated time.Time) domain.Issue {
    return domain.Issue{ID: id, Key: key, Name: name, Type: typ, RawStatus: status, CreatedAt: created, LastUpdate: updated}
}

// fixtureSnapshot is one epic with a finished task (mixed subtask time
// registration), one overdue task, plus one unparented backlog task.
func fixtureSnapshot() domain.Snapshot {
    old := day(5, 1, 9)
    t1 := domain.Task{
        Issue:          issue("11", "PRJ-2", "Checkout", "Tarefa", "Concluído", old, day(6, 8, 9)),
        Assignee:       "Ana",
        DueDate:        at(day(6, 12, 0)),
        ResolutionDate: at(day(6, 8, 9)),
        TimeSpent:      wd(4 * domain.Hour),
        Subtasks: []domain.Subtask{
            {
                Issue:          issue("12", "PRJ-3", "Layout", "Subtarefa", "Concluído", old, day(6, 7, 9)),
                Assignee:       "Ana",
                DueDate:        at(day(6, 6, 0)),
                ResolutionDate: at(day(6, 7, 9)),
            },
            {
                Issue:     issue("13", "PRJ-4", "Revisão de API", "Subtarefa", "Em Validação", old, day(6, 9, 11)),
                Assignee:  "Ana",
                TimeSpent: wd(2 * domain.Hour),
            },
        },
    }
    t2 := domain.Task{
        Issue:    issue("14", "PRJ-5", "Pagamentos", "Tarefa", "Em Andamento", day(6, 5, 9), day(6, 10, 8)),
        Assignee: "Bruno",
        DueDate:  at(day(6, 9, 0)),
    }
    t3 := domain.Task{
        Issue: issue("15", "PRJ-6", "Ideia futura", "Tarefa", "Backlog", old, old),
    }
    return domain.Snapshot{
        Project: domain.Project{ID: "10000", Key: "PRJ", Name: "Plataforma"},
        Epics: []domain.Epic{
            {
                Issue: issue("10", "PRJ-1", "Lançamento", "Épico", "Em Andamento", old, day(6, 9, 10)),
                Tasks: []domain.Task{t1, t2},
            },
        },
        Unparented: []domain.Task{t3},
    }
}

func TestAggregateCountsAndDistribution(t *testing.T) {
    m, err := Aggregate(fixtureSnapshot(), aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    want := domain.StatusCounts{Backlog: 1, InProgress: 3, Validation: 0, Done: 2}
    if m.Counts != want {
        t.Fatalf("counts = %+v, want %+v", m.Counts, want)
    }
    if m.TotalIssues != 6 {
        t.Fatalf("total = %d, want 6", m.TotalIssues)
    }
    var inProgress domain.StatusShare
    for _, s := range m.Distribution {
        if s.Bucket == domain.StatusInProgress {
            inProgress = s
        }
    }
    if inProgress.Count != 3 || inProgress.Percent != 50 {
        t.Fatalf("in-progress share = %+v, want 3 at 50%%", inProgress)
    }
}

func TestAggregateSubtaskValidationCountsAsInProgress(t *testing.T) {
    m, err := Aggregate(fixtureSnapshot(), aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    // PRJ-4 sits in a validation status but only tasks may report
    // validation; the bucket stays at zero.
    if m.Counts.Validation != 0 {
        t.Fatalf("validation count = %d, want 0", m.Counts.Validation)
    }
    for _, a := range m.Activities {
        if a.Key == "PRJ-4" && a.Bucket != domain.StatusInProgress {
            t.Fatalf("PRJ-4 activity bucket = %v, want in progress", a.Bucket)
        }
    }
}

func TestAggregateAssigneeRollups(t *testing.T) {
    m, err := Aggregate(fixtureSnapshot(), aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    if len(m.Assignees) != 3 {
        t.Fatalf("assignees = %d, want 3", len(m.Assignees))
    }
    if m.Assignees[0].Assignee != "Ana" || m.Assignees[1].Assignee != "Bruno" {
        t.Fatalf("assignees must sort alphabetically, got %q then %q", m.Assignees[0].Assignee, m.Assignees[1].Assignee)
    }
    if last := m.Assignees[2].Assignee; last != UnassignedBucket {
        t.Fatalf("unassigned bucket must sort last, got %q", last)
    }
    ana := m.Assignees[0]
    if ana.Completed != 2 || ana.InProgress != 1 || ana.AtRisk != 0 {
        t.Fatalf("ana rollup = %+v", ana)
    }
    if ana.TimeSpent != 6*domain.Hour {
        t.Fatalf("ana time = %v, want 6h", ana.TimeSpent)
    }
    bruno := m.Assignees[1]
    if bruno.InProgress != 1 || bruno.AtRisk != 1 {
        t.Fatalf("bruno rollup = %+v", bruno)
    }
}

func TestAggregateRisksAndTimeNotes(t *testing.T) {
    m, err := Aggregate(fixtureSnapshot(), aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    if len(m.Risks) != 1 || m.Risks[0].Key != "PRJ-5" {
        t.Fatalf("risks = %+v, want only PRJ-5", m.Risks)
    }
    r := m.Risks[0].Risk
    if r.Level != domain.RiskOverdue || r.Delay != domain.AssigneeDelay {
        t.Fatalf("PRJ-5 risk = %+v", r)
    }
    if !reflect.DeepEqual(m.InheritedTime, []string{"PRJ-3"}) {
        t.Fatalf("inherited = %v, want [PRJ-3]", m.InheritedTime)
    }
    if !reflect.DeepEqual(m.BothRecorded, []string{"PRJ-2"}) {
        t.Fatalf("both recorded = %v, want [PRJ-2]", m.BothRecorded)
    }
    if m.TotalTime != 6*domain.Hour {
        t.Fatalf("total time = %v, want 6h", m.TotalTime)
    }
}

func TestAggregateHistoryWindow(t *testing.T) {
    m, err := Aggregate(fixtureSnapshot(), aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    if m.CreatedInWindow != 1 {
        t.Fatalf("created in window = %d, want 1", m.CreatedInWindow)
    }
    if m.CompletedInWindow != 2 {
        t.Fatalf("completed in window = %d, want 2", m.CompletedInWindow)
    }
    if m.ResolvedOnTime != 1 || m.ResolvedLate != 1 {
        t.Fatalf("on time/late = %d/%d, want 1/1", m.ResolvedOnTime, m.ResolvedLate)
    }
}

func TestAggregateActivityOrdering(t *testing.T) {
    m, err := Aggregate(fixtureSnapshot(), aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    keys := make([]string, len(m.Activities))
    for i, a := range m.Activities {
        keys[i] = a.Key
    }
    want := []string{"PRJ-5", "PRJ-4", "PRJ-1", "PRJ-2", "PRJ-3"}
    if !reflect.DeepEqual(keys, want) {
        t.Fatalf("activity order = %v, want %v", keys, want)
    }
    for _, a := range m.Activities {
        if a.Key == "PRJ-3" {
            if !a.TimeInherited || a.TimeSpent != 4*domain.Hour {
                t.Fatalf("PRJ-3 must inherit the parent's 4h, got %+v", a)
            }
        }
    }
}

func TestAggregateIsDeterministic(t *testing.T) {
    snap := fixtureSnapshot()
    cfg := aggConfig()
    a, err := Aggregate(snap, cfg)
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    b, err := Aggregate(snap, cfg)
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    if !reflect.DeepEqual(a, b) {
        t.Fatalf("same snapshot and config must produce identical metrics")
    }
}

func TestAggregateRejectsDuplicateKey(t *testing.T) {
    snap := fixtureSnapshot()
    dup := snap.Epics[0].Tasks[1]
    dup.ID = "99"
    snap.Unparented = append(snap.Unparented, dup)
    _, err := Aggregate(snap, aggConfig())
    var tree *domain.InconsistentTreeError
    if !errors.As(err, &tree) {
        t.Fatalf("expected InconsistentTreeError, got %v", err)
    }
}

func TestAggregateRejectsResolutionBeforeCreation(t *testing.T) {
    snap := fixtureSnapshot()
    bad := at(day(4, 1, 0))
    snap.Epics[0].Tasks[0].ResolutionDate = bad
    _, err := Aggregate(snap, aggConfig())
    var tree *domain.InconsistentTreeError
    if !errors.As(err, &tree) {
        t.Fatalf("expected InconsistentTreeError, got %v", err)
    }
    if tree.Key != "PRJ-2" {
        t.Fatalf("error should name the issue, got %q", tree.Key)
    }
}

func TestAggregateRejectsUnknownStatus(t *testing.T) {
    snap := fixtureSnapshot()
    snap.Epics[0].Tasks[1].RawStatus = "Bloqueado"
    _, err := Aggregate(snap, aggConfig())
    var unk *domain.UnknownStatusError
    if !errors.As(err, &unk) {
        t.Fatalf("expected UnknownStatusError, got %v", err)
    }
}

func TestAggregateEmptyProjectYieldsZeroes(t *testing.T) {
    snap := domain.Snapshot{Project: domain.Project{ID: "1", Key: "VZ", Name: "Vazio"}}
    m, err := Aggregate(snap, aggConfig())
    if err != nil {
        t.Fatalf("Aggregate: %v", err)
    }
    if m.TotalIssues != 0 || len(m.Risks) != 0 || len(m.Activities) != 0 {
        t.Fatalf("empty snapshot must produce empty metrics, got %+v", m)
    }
    for _, s := range m.Distribution {
        if s.Percent != 0 {
            t.Fatalf("zero-total distribution must not divide, got %+v", s)
        }
    }
}
