package render

import (
	"fmt"
	"strings"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

// Markdown lays out a structured report as react-markdown-compatible
// markdown. It only arranges what the report builder produced; tables are
// emitted in full, never summarized or truncated.
func Markdown(r *domain.Report) string {
	b := &strings.Builder{}
	switch r.Intent {
	case domain.IntentDirectFactual:
		renderDirect(b, r)
	case domain.IntentPartialAnalytical:
		renderPartial(b, r)
	default:
		renderStrategic(b, r)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderDirect(b *strings.Builder, r *domain.Report) {
	for _, f := range r.Direct.Facts {
		fmt.Fprintf(b, "- **%s:** %s\n", f.Label, f.Value)
	}
	b.WriteString("\n")
	for _, t := range r.Direct.Tables {
		writeTable(b, t)
	}
	if r.Direct.Insight != "" {
		fmt.Fprintf(b, "%s\n", r.Direct.Insight)
	}
}

func renderPartial(b *strings.Builder, r *domain.Report) {
	fmt.Fprintf(b, "## %s\n\n", r.Partial.Title)
	fmt.Fprintf(b, "%s\n\n", r.Partial.Summary)
	for _, t := range r.Partial.Tables {
		writeTable(b, t)
	}
	writeBullets(b, "Insights", r.Partial.Insights)
}

func renderStrategic(b *strings.Builder, r *domain.Report) {
	s := r.Strategic
	fmt.Fprintf(b, "## Relatório do projeto %s\n\n", r.Project.Name)
	fmt.Fprintf(b, "### Resumo\n\n%s\n\n", s.Summary)
	writeSection(b, s.Status)
	writeSection(b, s.TeamPerformance)
	writeSection(b, s.RisksDelays)
	writeSection(b, s.TimeEffort)
	for _, n := range s.TimeNotes {
		fmt.Fprintf(b, "- %s\n", n)
	}
	if len(s.TimeNotes) > 0 {
		b.WriteString("\n")
	}
	writeSection(b, s.HistoryTrends)
	writeSection(b, s.Detail)
	writeBullets(b, "Insights estratégicos", s.Insights)
	fmt.Fprintf(b, "### Conclusão\n\n%s\n", s.Conclusion)
}

func writeSection(b *strings.Builder, t domain.Table) {
	fmt.Fprintf(b, "### %s\n\n", t.Title)
	writeTable(b, t)
}

func writeTable(b *strings.Builder, t domain.Table) {
	if len(t.Rows) == 0 {
		b.WriteString("Nenhum item no período analisado.\n\n")
		return
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(t.Columns, " | "))
	sep := make([]string, len(t.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(sep, " | "))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", "\\|")
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}
	b.WriteString("\n")
}

func writeBullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}
