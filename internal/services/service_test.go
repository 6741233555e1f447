package services

import (
    "context"
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "github.com/LucasBarbosa257/Valmore/internal/config"
    "github.com/LucasBarbosa257/Valmore/internal/domain"
    "github.com/LucasBarbosa257/Valmore/internal/repo"
)

type fakeStore struct {
    users        map[string]string
    integrations map[string]*domain.UserIntegration
    started      []string
    finishedOK   bool
    finishIntent string
    locked       bool
}

func (f *fakeStore) FindUserIDByAccessToken(_ context.Context, token string) (string, error) {
    if id, ok := f.users[token]; ok {
        return id, nil
    }
    return "", repo.ErrNotFound
}

func (f *fakeStore) GetIntegration(_ context.Context, userID, provider string) (*domain.UserIntegration, error) {
    if in, ok := f.integrations[userID+"/"+provider]; ok {
        return in, nil
    }
    return nil, repo.ErrNotFound
}

func (f *fakeStore) StartReportRun(_ context.Context, trigger, _ string) (int64, error) {
    f.started = append(f.started, trigger)
    return int64(len(f.started)), nil
}

func (f *fakeStore) FinishReportRun(_ context.Context, _ int64, _ int, intent string, success bool, _ string) error {
    f.finishedOK = success
    f.finishIntent = intent
    return nil
}

func (f *fakeStore) TryAdvisoryLock(_ context.Context, _ int64) (bool, error) {
    if f.locked {
        return false, nil
    }
    f.locked = true
    return true, nil
}

func (f *fakeStore) AdvisoryUnlock(_ context.Context, _ int64) error {
    f.locked = false
    return nil
}

type fakeJira struct {
    projects []domain.Project
    epics    []domain.Epic
    loose    []domain.Task
    fail     error
}

func (f *fakeJira) RecentProjects(context.Context) ([]domain.Project, error) {
    if f.fail != nil {
        return nil, f.fail
    }
    return f.projects, nil
}

func (f *fakeJira) IssueTree(context.Context, string) ([]domain.Epic, []domain.Task, error) {
    if f.fail != nil {
        return nil, nil, f.fail
    }
    return f.epics, f.loose, nil
}

type fakeCommentator struct {
    enabled bool
    text    string
}

func (f *fakeCommentator) Enabled() bool { return f.enabled }
func (f *fakeCommentator) Commentary(context.Context, string) (string, error) {
    return f.text, nil
}

func testConfig() config.Config {
    return config.Config{
        AppEnv: "test",
        StatusBuckets: config.StatusBuckets{
            Backlog:    []string{"backlog"},
            InProgress: []string{"em andamento"},
            Validation: []string{"em validação"},
            Done:       []string{"concluído"},
        },
        AnalysisWindow: 7 * 24 * time.Hour,
        RiskLookahead:  3 * 24 * time.Hour,
        JiraTimeout:    time.Second,
        OpenAITimeout:  time.Second,
    }
}

func testStore() *fakeStore {
    return &fakeStore{
        users: map[string]string{"tok-1": "user-1"},
        integrations: map[string]*domain.UserIntegration{
            "user-1/jira": {ID: "1", UserID: "user-1", Provider: "jira", Host: "acme", Email: "pm@acme.com", APIToken: "secret"},
        },
    }
}

func testTree() ([]domain.Project, []domain.Epic) {
    created := time.Now().Add(-30 * 24 * time.Hour)
    updated := time.Now().Add(-time.Hour)
    resolved := time.Now().Add(-2 * time.Hour)
    spent := 2 * domain.Hour
    return []domain.Project{{ID: "10000", Key: "PRJ", Name: "Plataforma"}},
        []domain.Epic{{
            Issue: domain.Issue{ID: "1", Key: "PRJ-1", Name: "Lançamento", Type: "Épico", RawStatus: "Em Andamento", CreatedAt: created, LastUpdate: updated},
            Tasks: []domain.Task{{
                Issue:          domain.Issue{ID: "2", Key: "PRJ-2", Name: "Checkout", Type: "Tarefa", RawStatus: "Concluído", CreatedAt: created, LastUpdate: updated},
                Assignee:       "Ana",
                ResolutionDate: &resolved,
                TimeSpent:      &spent,
            }},
        }}
}

func newTestService(t *testing.T, store *fakeStore, jc JiraClient, llm Commentator) *Service {
    t.Helper()
    factory := func(domain.UserIntegration) JiraClient { return jc }
    svc, err := New(testConfig(), zerolog.Nop(), store, factory, llm, nil)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    return svc
}

func TestChatProducesStrategicReport(t *testing.T) {
    projects, epics := testTree()
    store := testStore()
    svc := newTestService(t, store, &fakeJira{projects: projects, epics: epics}, nil)

    md, err := svc.Chat(context.Background(), "tok-1", "Como está a saúde do projeto?")
    if err != nil {
        t.Fatalf("Chat: %v", err)
    }
    for _, want := range []string{
        "## Relatório do projeto Plataforma",
        "### Resumo",
        "### Conclusão",
        "Ana",
    } {
        if !strings.Contains(md, want) {
            t.Fatalf("report missing %q:\n%s", want, md)
        }
    }
    if !store.finishedOK || store.finishIntent != "strategic_broad" {
        t.Fatalf("run not recorded: ok=%v intent=%q", store.finishedOK, store.finishIntent)
    }
}

func TestChatDirectQuestionGetsDirectAnswer(t *testing.T) {
    projects, epics := testTree()
    svc := newTestService(t, testStore(), &fakeJira{projects: projects, epics: epics}, nil)

    md, err := svc.Chat(context.Background(), "tok-1", "Quantas tarefas foram concluídas hoje?")
    if err != nil {
        t.Fatalf("Chat: %v", err)
    }
    if strings.Contains(md, "## Relatório do projeto") {
        t.Fatalf("direct question must not get the full report:\n%s", md)
    }
    if !strings.Contains(md, "**Período analisado:**") {
        t.Fatalf("direct facts missing:\n%s", md)
    }
}

func TestChatUnknownToken(t *testing.T) {
    svc := newTestService(t, testStore(), &fakeJira{}, nil)
    _, err := svc.Chat(context.Background(), "tok-missing", "Qual o status?")
    if !errors.Is(err, ErrUnauthorized) {
        t.Fatalf("expected ErrUnauthorized, got %v", err)
    }
}

func TestChatMissingIntegration(t *testing.T) {
    store := testStore()
    store.users["tok-2"] = "user-2"
    svc := newTestService(t, store, &fakeJira{}, nil)
    _, err := svc.Chat(context.Background(), "tok-2", "Qual o status?")
    if !errors.Is(err, ErrNoIntegration) {
        t.Fatalf("expected ErrNoIntegration, got %v", err)
    }
}

func TestChatNoRecentProjects(t *testing.T) {
    svc := newTestService(t, testStore(), &fakeJira{}, nil)
    _, err := svc.Chat(context.Background(), "tok-1", "Qual o status?")
    if !errors.Is(err, domain.ErrEmptyProject) {
        t.Fatalf("expected ErrEmptyProject, got %v", err)
    }
}

func TestChatUpstreamFailure(t *testing.T) {
    store := testStore()
    svc := newTestService(t, store, &fakeJira{fail: errors.New("boom")}, nil)
    _, err := svc.Chat(context.Background(), "tok-1", "Qual o status?")
    var upstream *domain.UpstreamFetchError
    if !errors.As(err, &upstream) {
        t.Fatalf("expected UpstreamFetchError, got %v", err)
    }
    if store.finishedOK {
        t.Fatalf("failed run must not be recorded as success")
    }
}

func TestChatAppendsCommentaryOnStrategicIntent(t *testing.T) {
    projects, epics := testTree()
    llm := &fakeCommentator{enabled: true, text: "O ritmo de entregas está saudável."}
    svc := newTestService(t, testStore(), &fakeJira{projects: projects, epics: epics}, llm)

    md, err := svc.Chat(context.Background(), "tok-1", "Como está a saúde do projeto?")
    if err != nil {
        t.Fatalf("Chat: %v", err)
    }
    if !strings.Contains(md, "### Comentário do analista") || !strings.Contains(md, llm.text) {
        t.Fatalf("commentary missing:\n%s", md)
    }
}

func TestChatSkipsCommentaryOnDirectIntent(t *testing.T) {
    projects, epics := testTree()
    llm := &fakeCommentator{enabled: true, text: "não deveria aparecer"}
    svc := newTestService(t, testStore(), &fakeJira{projects: projects, epics: epics}, llm)

    md, err := svc.Chat(context.Background(), "tok-1", "Quantas tarefas foram concluídas hoje?")
    if err != nil {
        t.Fatalf("Chat: %v", err)
    }
    if strings.Contains(md, llm.text) {
        t.Fatalf("direct answers must not carry commentary:\n%s", md)
    }
}

func TestScheduledReportRequiresOperatorIntegration(t *testing.T) {
    svc := newTestService(t, testStore(), &fakeJira{}, nil)
    if err := svc.RunScheduledReport(context.Background()); err == nil {
        t.Fatalf("expected error without operator credentials")
    }
}

func TestScheduledReportSkipsWhenLocked(t *testing.T) {
    projects, epics := testTree()
    store := testStore()
    store.locked = true
    cfg := testConfig()
    cfg.JiraHost = "acme"
    cfg.JiraEmail = "ops@acme.com"
    cfg.JiraToken = "secret"
    factory := func(domain.UserIntegration) JiraClient {
        return &fakeJira{projects: projects, epics: epics}
    }
    svc, err := New(cfg, zerolog.Nop(), store, factory, nil, nil)
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    if err := svc.RunScheduledReport(context.Background()); err != nil {
        t.Fatalf("locked run must be a quiet skip, got %v", err)
    }
    if len(store.started) != 0 {
        t.Fatalf("locked run must not record a report run")
    }
}
