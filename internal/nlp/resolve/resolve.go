// Package resolve matches fuzzy, voice-transcribed names against known
// records. Matching is storage-independent and works on plain slices.
package resolve

import (
	"sort"
	"strings"
)

// Record is a resolvable entity, typically an employee or customer.
type Record struct {
	ID   int64
	Name string
}

// Match is a resolved record with the similarity score that selected it.
type Match struct {
	Record Record
	Score  float64
}

// Suggestion is a near-miss candidate offered when resolution fails.
type Suggestion struct {
	Name  string
	Score float64
}

// Scorer computes similarity between two normalized names in [0, 1].
type Scorer interface {
	Score(a, b string) float64
}

// SimilarityThreshold is the minimum score for the catch-all strategy.
const SimilarityThreshold = 0.6

// corrections maps frequent transcription mistakes to canonical spellings.
var corrections = map[string]string{
	"darwin":         "darvin",
	"darvim":         "darvin",
	"darwim":         "darvin",
	"antônio":        "antonio",
	"antônio darvin": "antonio darvin",
	"maria lúcia":    "maria lucia",
	"lúcia":          "lucia",
	"rabelo":         "antonio rabelo",
}

// Resolver resolves candidate names against record sets.
type Resolver struct {
	scorer Scorer
}

// New builds a Resolver. A nil scorer uses the default blend of exact,
// containment, shared-word and character-set similarity.
func New(scorer Scorer) *Resolver {
	if scorer == nil {
		scorer = DefaultScorer{}
	}
	return &Resolver{scorer: scorer}
}

// Normalize lowercases, trims and applies the correction table.
func Normalize(candidate string) string {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	if corrected, ok := corrections[normalized]; ok {
		return corrected
	}
	return normalized
}

// Resolve finds the record best matching candidate. Strategies are tried in
// order: exact match, containment either direction, token substring, then
// a similarity catch-all over all records.
func (r *Resolver) Resolve(candidate string, records []Record) (Match, bool) {
	if candidate == "" || len(records) == 0 {
		return Match{}, false
	}
	name := Normalize(candidate)

	for _, record := range records {
		if strings.ToLower(record.Name) == name {
			return Match{Record: record, Score: 1.0}, true
		}
	}

	for _, record := range records {
		recordName := strings.ToLower(record.Name)
		if strings.Contains(recordName, name) || strings.Contains(name, recordName) {
			return Match{Record: record, Score: 0.8}, true
		}
	}

	for _, part := range strings.Fields(name) {
		if len([]rune(part)) <= 2 {
			continue
		}
		for _, record := range records {
			if strings.Contains(strings.ToLower(record.Name), part) {
				return Match{Record: record, Score: 0.8}, true
			}
		}
	}

	var best Match
	for _, record := range records {
		score := r.scorer.Score(name, strings.ToLower(record.Name))
		if score > best.Score && score > SimilarityThreshold {
			best = Match{Record: record, Score: score}
		}
	}
	if best.Record.Name == "" {
		return Match{}, false
	}
	return best, true
}

// Suggestions ranks record names scoring above minScore against candidate,
// best first.
func (r *Resolver) Suggestions(candidate string, records []Record, minScore float64) []Suggestion {
	name := Normalize(candidate)

	var out []Suggestion
	for _, record := range records {
		score := r.scorer.Score(name, strings.ToLower(record.Name))
		if score > minScore {
			out = append(out, Suggestion{Name: record.Name, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// DefaultScorer blends exact equality, containment, shared-word ratio and
// character-set overlap.
type DefaultScorer struct{}

func (DefaultScorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a != "" && b != "" && (strings.Contains(b, a) || strings.Contains(a, b)) {
		return 0.8
	}

	partsA := fieldSet(a)
	partsB := fieldSet(b)
	shared := 0
	for part := range partsA {
		if partsB[part] {
			shared++
		}
	}
	if shared > 0 {
		longest := len(partsA)
		if len(partsB) > longest {
			longest = len(partsB)
		}
		return float64(shared) / float64(longest)
	}

	charsA := runeSet(a)
	charsB := runeSet(b)
	common := 0
	for c := range charsA {
		if charsB[c] {
			common++
		}
	}
	longest := len(charsA)
	if len(charsB) > longest {
		longest = len(charsB)
	}
	if longest == 0 {
		return 0
	}
	return float64(common) / float64(longest)
}

func fieldSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range s {
		set[r] = true
	}
	return set
}
