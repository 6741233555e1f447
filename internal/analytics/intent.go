package analytics

import (
	"strings"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

// Lexical cue sets for the three request intents. The vocabulary is the
// Portuguese executive phrasing the product receives; both accented and
// plain spellings are listed. This is a closed rule set, not language
// understanding.
var (
	strategicCues = []string{
		"estratégic", "estrategic", "risco", "riscos", "valor",
		"perform", "visão", "visao", "recomenda", "saúde", "saude",
		"executiv", "panorama", "relatório completo", "relatorio completo",
	}
	analyticalCues = []string{
		"distribuição", "distribuicao", "distribuíd", "distribuid",
		"comparação", "comparacao", "comparativo", "concentrado",
		"concentração", "concentracao", "sobrecarregad", "sobrecarga",
	}
	directCues = []string{
		"quem", "quantos", "quantas", "quando", "qual", "quais",
		"hoje", "ontem",
	}
)

// ClassifyQuery maps a request to one of the three reporting depths. An
// explicit intent from the caller always wins; otherwise strategic cues are
// checked first (broad scope dominates), then comparison/distribution cues,
// then direct-factual cues. With no cue at all the request gets the full
// strategic treatment.
func ClassifyQuery(text string, explicit *domain.Intent) domain.Intent {
	if explicit != nil {
		return *explicit
	}
	lower := strings.ToLower(text)
	if containsAny(lower, strategicCues) {
		return domain.IntentStrategicBroad
	}
	if containsAny(lower, analyticalCues) {
		return domain.IntentPartialAnalytical
	}
	if containsAny(lower, directCues) {
		return domain.IntentDirectFactual
	}
	return domain.IntentStrategicBroad
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}
