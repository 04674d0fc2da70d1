// Package matcher fuzzy-matches raw headers and free text against a
// canonical vocabulary.
package matcher

import (
	"github.com/dvloznov/docrisk/internal/vocabulary"
)

// Default thresholds on the 0-100 scale.
const (
	FieldThreshold = 80
	TypeThreshold  = 75
)

type candidate struct {
	entry      string
	synonym    string
	normalized string
}

// Matcher scores strings against one vocabulary section. It is immutable
// after construction and safe for concurrent use.
type Matcher struct {
	threshold  float64
	entries    []string
	candidates []candidate
}

// Result is the best match for a raw string.
type Result struct {
	Name    string
	Synonym string
	Score   float64
}

// EntryScore is the best score a raw string reaches against one entry.
type EntryScore struct {
	Name  string
	Score float64
}

// New builds a matcher over entries in their given order. Synonyms are
// normalized once here.
func New(entries []vocabulary.Entry, threshold float64) *Matcher {
	m := &Matcher{threshold: threshold}
	for _, e := range entries {
		m.entries = append(m.entries, e.Name)
		for _, s := range e.Synonyms {
			m.candidates = append(m.candidates, candidate{
				entry:      e.Name,
				synonym:    s,
				normalized: Normalize(s),
			})
		}
	}
	return m
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Best returns the highest-scoring synonym for raw regardless of the
// threshold. On equal scores the first synonym in vocabulary order wins.
func (m *Matcher) Best(raw string) Result {
	return m.bestNormalized(Normalize(raw))
}

func (m *Matcher) bestNormalized(norm string) Result {
	best := Result{Score: -1}
	for _, c := range m.candidates {
		score := TokenSetRatio(norm, c.normalized)
		if score > best.Score {
			best = Result{Name: c.entry, Synonym: c.synonym, Score: score}
		}
	}
	if best.Score < 0 {
		best.Score = 0
	}
	return best
}

// Match returns the owning entry of the best synonym when its score reaches
// the threshold.
func (m *Matcher) Match(raw string) (Result, bool) {
	r := m.Best(raw)
	if r.Name == "" || r.Score < m.threshold {
		return r, false
	}
	return r, true
}

// EntryScores returns, per entry in vocabulary order, the best score of any
// of raws against that entry's synonyms.
func (m *Matcher) EntryScores(raws ...string) []EntryScore {
	scores := make([]EntryScore, len(m.entries))
	index := make(map[string]int, len(m.entries))
	for i, name := range m.entries {
		scores[i] = EntryScore{Name: name}
		index[name] = i
	}

	for _, raw := range raws {
		norm := Normalize(raw)
		for _, c := range m.candidates {
			i := index[c.entry]
			if s := TokenSetRatio(norm, c.normalized); s > scores[i].Score {
				scores[i].Score = s
			}
		}
	}
	return scores
}

// Pick returns the first entry with the highest score, accepted when it
// reaches the threshold.
func (m *Matcher) Pick(scores []EntryScore) (EntryScore, bool) {
	best := EntryScore{Score: -1}
	for _, s := range scores {
		if s.Score > best.Score {
			best = s
		}
	}
	if best.Name == "" || best.Score < m.threshold {
		return best, false
	}
	return best, true
}
