package analytics

import (
	"fmt"
	"time"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

// Formatter renders instants, durations and percentages at the reporting
// boundary. The engine stays free of timezone and locale decisions; the
// caller injects the presentation it wants.
type Formatter interface {
	Instant(t time.Time) string
	OptionalInstant(t *time.Time) string
	Duration(d domain.WorkDuration) string
	Percent(p float64) string
}

// ReportBuilder assembles the intent-shaped structured report from
// aggregated metrics. It is deterministic: same metrics, same report.
type ReportBuilder struct {
	fmt Formatter
}

func NewReportBuilder(f Formatter) *ReportBuilder { return &ReportBuilder{fmt: f} }

// Build produces exactly one report shape for the given intent. Strategic
// reports carry the full fixed section set with the complete, untruncated
// activity table.
func (b *ReportBuilder) Build(m *domain.ProjectMetrics, intent domain.Intent) *domain.Report {
	r := &domain.Report{
		Intent:  intent,
		Period:  m.Window,
		Project: m.Project,
		Metrics: m,
	}
	switch intent {
	case domain.IntentDirectFactual:
		r.Direct = b.buildDirect(m)
	case domain.IntentPartialAnalytical:
		r.Partial = b.buildPartial(m)
	default:
		r.Strategic = b.buildStrategic(m)
	}
	return r
}

func (b *ReportBuilder) buildDirect(m *domain.ProjectMetrics) *domain.DirectAnswer {
	d := &domain.DirectAnswer{
		Facts: []domain.Fact{
			{Label: "Período analisado", Value: b.period(m.Window)},
			{Label: "Atividades concluídas no período", Value: fmt.Sprintf("%d", m.CompletedInWindow)},
			{Label: "Atividades criadas no período", Value: fmt.Sprintf("%d", m.CreatedInWindow)},
			{Label: "Atividades em risco", Value: fmt.Sprintf("%d", len(m.Risks))},
		},
		Tables: []domain.Table{b.teamTable(m)},
	}
	if top := topCompleter(m); top != "" {
		d.Insight = fmt.Sprintf("%s concentra o maior número de conclusões no período.", top)
	}
	return d
}

func (b *ReportBuilder) buildPartial(m *domain.ProjectMetrics) *domain.PartialAnalysis {
	return &domain.PartialAnalysis{
		Title:    fmt.Sprintf("Distribuição de atividades do projeto %s", m.Project.Name),
		Summary:  b.summaryLine(m),
		Tables:   []domain.Table{b.statusTable(m), b.teamTable(m)},
		Insights: b.insights(m),
	}
}

func (b *ReportBuilder) buildStrategic(m *domain.ProjectMetrics) *domain.StrategicSections {
	return &domain.StrategicSections{
		Summary:         b.summaryLine(m),
		Status:          b.statusTable(m),
		TeamPerformance: b.teamTable(m),
		RisksDelays:     b.riskTable(m),
		TimeEffort:      b.timeTable(m),
		TimeNotes:       b.timeNotes(m),
		HistoryTrends:   b.historyTable(m),
		Detail:          b.detailTable(m),
		Insights:        b.insights(m),
		Conclusion:      b.conclusion(m),
	}
}

func (b *ReportBuilder) period(p domain.Period) string {
	return fmt.Sprintf("%s a %s", b.fmt.Instant(p.From), b.fmt.Instant(p.To))
}

func (b *ReportBuilder) summaryLine(m *domain.ProjectMetrics) string {
	donePct := 0.0
	if m.TotalIssues > 0 {
		donePct = float64(m.Counts.Done) * 100 / float64(m.TotalIssues)
	}
	return fmt.Sprintf(
		"O projeto %s reúne %d atividades, das quais %s estão concluídas. No período de %s, %d atividades foram concluídas e %d apresentam risco de prazo.",
		m.Project.Name, m.TotalIssues, b.fmt.Percent(donePct), b.period(m.Window),
		m.CompletedInWindow, len(m.Risks),
	)
}

func (b *ReportBuilder) statusTable(m *domain.ProjectMetrics) domain.Table {
	t := domain.Table{
		Title:   "Status das atividades",
		Columns: []string{"Status", "Quantidade", "Percentual"},
	}
	for _, s := range m.Distribution {
		t.Rows = append(t.Rows, []string{
			bucketLabel(s.Bucket), fmt.Sprintf("%d", s.Count), b.fmt.Percent(s.Percent),
		})
	}
	return t
}

func (b *ReportBuilder) teamTable(m *domain.ProjectMetrics) domain.Table {
	t := domain.Table{
		Title:   "Performance da equipe",
		Columns: []string{"Responsável", "Concluídas", "Em andamento", "Em risco", "Tempo registrado"},
	}
	for _, a := range m.Assignees {
		t.Rows = append(t.Rows, []string{
			assigneeLabel(a.Assignee),
			fmt.Sprintf("%d", a.Completed),
			fmt.Sprintf("%d", a.InProgress),
			fmt.Sprintf("%d", a.AtRisk),
			b.fmt.Duration(a.TimeSpent),
		})
	}
	return t
}

func (b *ReportBuilder) riskTable(m *domain.ProjectMetrics) domain.Table {
	t := domain.Table{
		Title:   "Riscos e atrasos",
		Columns: []string{"Atividade", "Nível", "Responsável", "Prazo", "Situação"},
	}
	for _, r := range m.Risks {
		t.Rows = append(t.Rows, []string{
			issueLabel(r.Name, r.Key),
			levelLabel(r.Level),
			assigneeLabel(r.Assignee),
			b.fmt.OptionalInstant(r.DueDate),
			riskLabel(r.Risk),
		})
	}
	return t
}

func (b *ReportBuilder) timeTable(m *domain.ProjectMetrics) domain.Table {
	t := domain.Table{
		Title:   "Tempo e esforço",
		Columns: []string{"Tipo de atividade", "Tempo registrado"},
	}
	for _, tt := range m.TimeByType {
		t.Rows = append(t.Rows, []string{tt.Type, b.fmt.Duration(tt.Total)})
	}
	t.Rows = append(t.Rows, []string{"Total", b.fmt.Duration(m.TotalTime)})
	return t
}

func (b *ReportBuilder) timeNotes(m *domain.ProjectMetrics) []string {
	var notes []string
	for _, key := range m.InheritedTime {
		notes = append(notes, fmt.Sprintf("A subtask %s não possui tempo registrado próprio; o tempo informado foi herdado da task principal.", key))
	}
	for _, key := range m.BothRecorded {
		notes = append(notes, fmt.Sprintf("A task %s e suas subtasks registraram tempo de forma independente; os valores foram somados.", key))
	}
	return notes
}

func (b *ReportBuilder) historyTable(m *domain.ProjectMetrics) domain.Table {
	return domain.Table{
		Title:   "Histórico e tendências",
		Columns: []string{"Indicador", "Valor"},
		Rows: [][]string{
			{"Atividades criadas no período", fmt.Sprintf("%d", m.CreatedInWindow)},
			{"Atividades concluídas no período", fmt.Sprintf("%d", m.CompletedInWindow)},
			{"Concluídas dentro do prazo", fmt.Sprintf("%d", m.ResolvedOnTime)},
			{"Concluídas fora do prazo", fmt.Sprintf("%d", m.ResolvedLate)},
		},
	}
}

func (b *ReportBuilder) detailTable(m *domain.ProjectMetrics) domain.Table {
	t := domain.Table{
		Title:   "Atividades do período",
		Columns: []string{"Atividade", "Tipo", "Nível", "Responsável", "Status", "Última atualização", "Prazo", "Conclusão", "Tempo gasto"},
	}
	for _, a := range m.Activities {
		spent := b.fmt.Duration(a.TimeSpent)
		if a.TimeInherited {
			spent += " (herdado da task principal)"
		}
		t.Rows = append(t.Rows, []string{
			issueLabel(a.Name, a.Key),
			a.Type,
			levelLabel(a.Level),
			assigneeLabel(a.Assignee),
			bucketLabel(a.Bucket),
			b.fmt.Instant(a.LastUpdate),
			b.fmt.OptionalInstant(a.DueDate),
			b.fmt.OptionalInstant(a.ResolutionDate),
			spent,
		})
	}
	return t
}

func (b *ReportBuilder) insights(m *domain.ProjectMetrics) []string {
	var out []string
	if top := topCompleter(m); top != "" {
		out = append(out, fmt.Sprintf("%s lidera as conclusões do período.", top))
	}
	overdueAssignee, overdueProcess := 0, 0
	for _, r := range m.Risks {
		if r.Risk.Level != domain.RiskOverdue {
			continue
		}
		if r.Risk.Delay == domain.ProcessDelay {
			overdueProcess++
		} else {
			overdueAssignee++
		}
	}
	if overdueAssignee > 0 {
		out = append(out, fmt.Sprintf("%d atividades estão atrasadas sob responsabilidade da equipe e exigem ação imediata.", overdueAssignee))
	}
	if overdueProcess > 0 {
		out = append(out, fmt.Sprintf("%d atividades aguardam validação além do prazo; o atraso é do processo de revisão, não dos executores.", overdueProcess))
	}
	if m.Counts.Backlog > m.Counts.Done {
		out = append(out, "O backlog supera o volume concluído, indicando acúmulo de demanda.")
	}
	if len(out) == 0 {
		out = append(out, "Nenhum risco relevante identificado no período analisado.")
	}
	return out
}

func (b *ReportBuilder) conclusion(m *domain.ProjectMetrics) string {
	overdue := 0
	for _, r := range m.Risks {
		if r.Risk.Level == domain.RiskOverdue {
			overdue++
		}
	}
	switch {
	case overdue == 0 && m.CompletedInWindow > 0:
		return "O projeto avança dentro dos prazos estabelecidos, com entregas consistentes no período."
	case overdue > 0:
		return fmt.Sprintf("O projeto requer atenção: %d atividades ultrapassaram o prazo e podem comprometer entregas críticas.", overdue)
	default:
		return "O projeto não registrou conclusões no período; recomenda-se revisar a priorização das atividades em andamento."
	}
}

func topCompleter(m *domain.ProjectMetrics) string {
	best := ""
	bestCount := 0
	for _, a := range m.Assignees {
		if a.Assignee == UnassignedBucket {
			continue
		}
		if a.Completed > bestCount {
			best = a.Assignee
			bestCount = a.Completed
		}
	}
	return best
}

func issueLabel(name, key string) string {
	return fmt.Sprintf("%s (%s)", name, key)
}

func assigneeLabel(a string) string {
	if a == "" || a == UnassignedBucket {
		return "Sem responsável"
	}
	return a
}

func bucketLabel(b domain.StatusBucket) string {
	switch b {
	case domain.StatusBacklog:
		return "Backlog"
	case domain.StatusInProgress:
		return "Em andamento"
	case domain.StatusValidation:
		return "Em validação"
	case domain.StatusDone:
		return "Concluída"
	}
	return "Desconhecido"
}

func levelLabel(l domain.IssueLevel) string {
	switch l {
	case domain.LevelEpic:
		return "Épico"
	case domain.LevelTask:
		return "Task"
	case domain.LevelSubtask:
		return "Subtask"
	}
	return "Atividade"
}

func riskLabel(r domain.Risk) string {
	switch r.Level {
	case domain.RiskNearDeadline:
		return "Próxima do prazo"
	case domain.RiskOverdue:
		if r.Delay == domain.ProcessDelay {
			return "Atrasada no processo de validação"
		}
		return "Atrasada"
	}
	return "No prazo"
}
