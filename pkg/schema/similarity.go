package schema

import "unicode/utf8"

// fuzzyHeaderThreshold is the minimum similarity for a header to match a
// HeaderMappings entry by edit distance.
const fuzzyHeaderThreshold = 0.85

// headerMatcher scores one normalized header against known header names by
// Levenshtein distance. The two distance rows are sized to the header and
// reused for every candidate.
type headerMatcher struct {
	header     []rune
	prev, curr []int
}

func newHeaderMatcher(normalized string) *headerMatcher {
	header := []rune(normalized)
	return &headerMatcher{
		header: header,
		prev:   make([]int, len(header)+1),
		curr:   make([]int, len(header)+1),
	}
}

// distance returns the number of single-rune insertions, deletions and
// substitutions turning the header into candidate.
func (m *headerMatcher) distance(candidate string) int {
	for i := range m.prev {
		m.prev[i] = i
	}
	row := 0
	for _, c := range candidate {
		row++
		m.curr[0] = row
		for i, h := range m.header {
			cost := 1
			if h == c {
				cost = 0
			}
			m.curr[i+1] = min(m.prev[i+1]+1, m.curr[i]+1, m.prev[i]+cost)
		}
		m.prev, m.curr = m.curr, m.prev
	}
	return m.prev[len(m.header)]
}

// score is 1 - distance / longer length: 1.0 for identical names, 0.0 for
// nothing in common.
func (m *headerMatcher) score(candidate string) float64 {
	longest := max(len(m.header), utf8.RuneCountInString(candidate))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(m.distance(candidate))/float64(longest)
}

// closest returns the plot field whose known header is nearest, ignoring
// fields already in taken. Equal scores go to the lower field key. ok is
// false when the best score is under fuzzyHeaderThreshold.
func (m *headerMatcher) closest(taken map[string]string) (field string, ok bool) {
	best, bestScore := "", 0.0
	for known, target := range HeaderMappings {
		if _, used := taken[target]; used {
			continue
		}
		s := m.score(known)
		if s > bestScore || s == bestScore && target < best {
			best, bestScore = target, s
		}
	}
	return best, best != "" && bestScore >= fuzzyHeaderThreshold
}
