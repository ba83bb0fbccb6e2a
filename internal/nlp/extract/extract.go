// Package extract provides lexical extractors for Portuguese command text.
// All functions are pure and deterministic so they can be tested on plain
// strings without any collaborator.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Brazilian money format: optional thousands dots, comma decimals.
	amountBrazilian = regexp.MustCompile(`(?i)(?:R\$)?\s*(\d{1,3}(?:\.\d{3})*,\d{1,2})`)
	// Plain format: dot decimals or bare integer.
	amountPlain = regexp.MustCompile(`(?i)(?:R\$)?\s*(\d+(?:\.\d{1,2})?)`)

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:para|de|do|da)\s+([A-Za-zÀ-ÿ]+(?:\s+[A-Za-zÀ-ÿ]+)?)`),
		regexp.MustCompile(`(?i)([A-Za-zÀ-ÿ]+(?:\s+[A-Za-zÀ-ÿ]+)?)\s+(?:receber|ganhar)`),
		regexp.MustCompile(`(?i)(?:para|de|do|da)\s+([A-Za-zÀ-ÿ]+(?:\s+[A-Za-zÀ-ÿ]+)?)$`),
		regexp.MustCompile(`\b([A-ZÀ-Ö][a-zà-ÿ]+(?:\s+[A-ZÀ-Ö][a-zà-ÿ]+)?)\b`),
	}

	datePattern   = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})`)
	numberPattern = regexp.MustCompile(`\b(\d+)\b`)
)

// DefaultExclusions are command words that look like names but never are.
var DefaultExclusions = []string{
	"vale", "reais", "real", "dinheiro", "criar", "fazer", "dar", "pagar",
}

// Amount extracts the first monetary value in the text. The R$ marker is
// optional; both "1.234,56" and "123.45" styles are accepted.
func Amount(text string) (float64, bool) {
	if m := amountBrazilian.FindStringSubmatch(text); m != nil {
		raw := strings.ReplaceAll(m[1], ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v, true
		}
	}
	if m := amountPlain.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Name extracts a person name from the text. Patterns are tried in order and
// a candidate is rejected when its lowercased form is in the exclusion list
// or is too short to be a name. A nil exclusion list uses DefaultExclusions.
func Name(text string, exclusions []string) (string, bool) {
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	excluded := make(map[string]bool, len(exclusions))
	for _, w := range exclusions {
		excluded[strings.ToLower(w)] = true
	}

	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if !excluded[strings.ToLower(name)] && len([]rune(name)) > 2 {
			return name, true
		}
	}
	return "", false
}

// Date interprets a date mention relative to now. Relative keywords take
// precedence over explicit DD/MM/YYYY dates.
func Date(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	switch {
	case strings.Contains(lower, "hoje"):
		return day(now), true
	case strings.Contains(lower, "ontem"):
		return day(now.AddDate(0, 0, -1)), true
	case strings.Contains(lower, "amanhã"), strings.Contains(lower, "amanha"):
		return day(now.AddDate(0, 0, 1)), true
	case strings.Contains(lower, "semana passada"):
		return day(now.AddDate(0, 0, -7)), true
	case strings.Contains(lower, "próxima semana"), strings.Contains(lower, "proxima semana"):
		return day(now.AddDate(0, 0, 7)), true
	case strings.Contains(lower, "mês passado"), strings.Contains(lower, "mes passado"):
		return day(now.AddDate(0, 0, -30)), true
	}

	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	dayNum, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	yearStr := m[3]
	if len(yearStr) == 2 {
		yearStr = "20" + yearStr
	}
	year, _ := strconv.Atoi(yearStr)

	if month < 1 || month > 12 || dayNum < 1 || dayNum > 31 {
		return time.Time{}, false
	}
	parsed := time.Date(year, time.Month(month), dayNum, 0, 0, 0, 0, now.Location())
	if parsed.Day() != dayNum {
		// Normalized away, e.g. 31/02.
		return time.Time{}, false
	}
	return parsed, true
}

// Count extracts the first bare integer in the text.
func Count(text string) (int, bool) {
	m := numberPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Numbers extracts every bare integer in the text, in order of appearance.
func Numbers(text string) []int {
	matches := numberPattern.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}
	numbers := make([]int, 0, len(matches))
	for _, m := range matches {
		if n, err := strconv.Atoi(m[1]); err == nil {
			numbers = append(numbers, n)
		}
	}
	return numbers
}
