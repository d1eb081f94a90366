// Package match scores extracted line item labels against the canonical
// metric catalog. Matching is pure string work so it stays independent of
// storage and can be tuned with table-driven tests.
package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"

	"finsight/internal/domain"
)

// Threshold is the minimum similarity for a fuzzy match to count.
// Below it a label stays unmapped rather than mapped wrongly.
const Threshold = 0.84

// Result is a catalog hit for a label.
type Result struct {
	Name       string
	Confidence float64
}

// Best returns the strongest catalog match for a label. An exact variant
// match (case-insensitive) wins with confidence 1.0; otherwise the highest
// normalized similarity at or above Threshold wins. ok is false when nothing
// qualifies.
func Best(label string, catalog []domain.CanonicalMetric) (Result, bool) {
	folded := strings.ToLower(strings.TrimSpace(label))
	if folded == "" {
		return Result{}, false
	}

	for _, metric := range catalog {
		if strings.EqualFold(metric.Name, strings.TrimSpace(label)) {
			return Result{Name: metric.Name, Confidence: 1.0}, true
		}
		for _, variant := range metric.Variants {
			if strings.ToLower(variant) == folded {
				return Result{Name: metric.Name, Confidence: 1.0}, true
			}
		}
	}

	normalized := Normalize(label)
	if normalized == "" {
		return Result{}, false
	}

	best := Result{}
	for _, metric := range catalog {
		score := similarity(normalized, Normalize(metric.Name))
		for _, variant := range metric.Variants {
			if s := similarity(normalized, Normalize(variant)); s > score {
				score = s
			}
		}
		if score > best.Confidence {
			best = Result{Name: metric.Name, Confidence: score}
		}
	}
	if best.Confidence < Threshold {
		return Result{}, false
	}
	return best, true
}

// Normalize folds a label for fuzzy comparison: lowercase, punctuation and
// extra whitespace removed, trailing plural s stripped per word so
// "operating expenses" and "operating expense" agree, and words sorted so
// "Revenue, Total" and "Total Revenue" agree.
func Normalize(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == ',', r == '-', r == '/':
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = stem(w)
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

func stem(word string) string {
	if len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") {
		return word[:len(word)-1]
	}
	return word
}

func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	return levenshtein.Similarity(a, b, nil)
}
