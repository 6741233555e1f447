package analytics

import (
	"strings"

	"github.com/LucasBarbosa257/Valmore/internal/domain"
)

// StatusMap maps normalized raw board labels to canonical buckets. The
// vocabulary is board-specific, so the table is always supplied by the
// caller (config); a label missing from the table fails loudly instead of
// defaulting.
type StatusMap map[string]domain.StatusBucket

// NewStatusMap builds a StatusMap from per-bucket label lists, normalizing
// each label (trimmed, lowercased).
func NewStatusMap(byBucket map[domain.StatusBucket][]string) StatusMap {
	m := StatusMap{}
	for bucket, labels := range byBucket {
		for _, l := range labels {
			if key := normalizeStatus(l); key != "" {
				m[key] = bucket
			}
		}
	}
	return m
}

// Classify resolves a raw status label to its bucket or returns
// UnknownStatusError for labels absent from the table.
func (m StatusMap) Classify(raw string) (domain.StatusBucket, error) {
	bucket, ok := m[normalizeStatus(raw)]
	if !ok {
		return 0, &domain.UnknownStatusError{Status: raw}
	}
	return bucket, nil
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
