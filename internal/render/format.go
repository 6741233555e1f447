package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

const instantLayout = "02/01/2006 15:04:05"

// PT formats report values for the Brazilian executive audience: instants in
// America/Sao_Paulo as DD/MM/YYYY HH:MM:SS, durations in whole-word
// Portuguese units, never abbreviations.
type PT struct {
	loc *time.Location
}

func NewPT() (*PT, error) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return nil, fmt.Errorf("load report timezone: %w", err)
	}
	return &PT{loc: loc}, nil
}

func (p *PT) Instant(t time.Time) string {
	return t.In(p.loc).Format(instantLayout)
}

func (p *PT) OptionalInstant(t *time.Time) string {
	if t == nil {
		return "Não informado"
	}
	return p.Instant(*t)
}

// Duration spells out work time: "1 semana e 2 horas", "3 dias, 4 horas e
// 30 minutos". Units follow the Jira work-time convention the parser uses.
func (p *PT) Duration(d domain.WorkDuration) string {
	if d == 0 {
		return "nenhum tempo registrado"
	}
	type unit struct {
		size             domain.WorkDuration
		singular, plural string
	}
	units := []unit{
		{domain.WorkWeek, "semana", "semanas"},
		{domain.WorkDay, "dia", "dias"},
		{domain.Hour, "hora", "horas"},
		{domain.Minute, "minuto", "minutos"},
	}
	rest := d
	var parts []string
	for _, u := range units {
		n := rest / u.size
		if n == 0 {
			continue
		}
		rest -= n * u.size
		label := u.plural
		if n == 1 {
			label = u.singular
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}
	if len(parts) == 0 {
		// sub-minute residue only
		return "menos de 1 minuto"
	}
	return joinPT(parts)
}

func (p *PT) Percent(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	s = strings.Replace(s, ".", ",", 1)
	return s + "%"
}

// joinPT joins parts with commas and a final "e": "a, b e c".
func joinPT(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " e " + parts[1]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " e " + parts[len(parts)-1]
}
