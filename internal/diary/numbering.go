package diary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatDiaryNo renders the full diary number, e.g. 2026-000042.
func FormatDiaryNo(year, sequence int) string {
	return fmt.Sprintf("%d-%06d", year, sequence)
}

// ShortDiaryNo renders the unpadded form, e.g. 2026-42.
func ShortDiaryNo(year, sequence int) string {
	return fmt.Sprintf("%d-%d", year, sequence)
}

var diaryNoPattern = regexp.MustCompile(`^\s*(\d{4})\s*-\s*(\d+)\s*$`)

// ParseDiaryNo accepts both the full and the short form.
func ParseDiaryNo(s string) (year, sequence int, ok bool) {
	m := diaryNoPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	sequence, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return year, sequence, true
}

// searchTier identifies how a free-text query is matched.
type searchTier int

const (
	searchNone searchTier = iota
	searchDiaryNo
	searchSequence
	searchText
)

// searchTerm is a classified free-text query.
type searchTerm struct {
	tier     searchTier
	year     int
	sequence int
	text     string
}

// classifySearch applies the match tiers in order: diary number, bare
// sequence, then substring.
func classifySearch(q string) searchTerm {
	q = strings.TrimSpace(q)
	if q == "" {
		return searchTerm{tier: searchNone}
	}
	if year, seq, ok := ParseDiaryNo(q); ok {
		return searchTerm{tier: searchDiaryNo, year: year, sequence: seq}
	}
	if isDigits(q) {
		if seq, err := strconv.Atoi(q); err == nil {
			return searchTerm{tier: searchSequence, sequence: seq}
		}
	}
	return searchTerm{tier: searchText, text: q}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
