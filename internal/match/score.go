package match

import (
	"strings"

	"playlistporter/internal/models"
)

// IncomparableDistance is returned when either input is empty: the strings
// are incomparable, not identical, and no real comparison can reach it.
const IncomparableDistance = 999

// artistWeight biases the composite score toward artist mismatches; a wrong
// artist is a stronger signal of a bad match than a reworded title.
const artistWeight = 1.5

// ToleranceUnlimited disables the duration window for a search tier.
const ToleranceUnlimited = -1

// Distance computes the Levenshtein edit distance between a and b over
// Unicode code points.
func Distance(a, b string) int {
	if a == "" || b == "" {
		return IncomparableDistance
	}

	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Score is the composite dissimilarity of a candidate against a source
// track: title distance plus weighted artist distance over normalized,
// case-folded strings. Lower is better.
func Score(source models.Track, candidate models.CandidateMatch) float64 {
	srcTitle := strings.ToLower(Normalize(source.Title))
	srcArtist := strings.ToLower(Normalize(source.Artist))
	candTitle := strings.ToLower(Normalize(candidate.Name))
	candArtist := strings.ToLower(Normalize(candidate.Artist))

	titleScore := Distance(srcTitle, candTitle)
	artistScore := Distance(srcArtist, candArtist)
	return float64(titleScore) + artistWeight*float64(artistScore)
}

// WithinTolerance reports whether a candidate's duration falls inside the
// window around the source duration. An unknown duration on either side
// disables the filter for that comparison; toleranceMS of
// [ToleranceUnlimited] disables it for the whole tier.
func WithinTolerance(source models.Track, candidate models.CandidateMatch, toleranceMS int) bool {
	if toleranceMS == ToleranceUnlimited {
		return true
	}
	if source.DurationMS <= 0 || candidate.DurationMS <= 0 {
		return true
	}
	diff := source.DurationMS - candidate.DurationMS
	if diff < 0 {
		diff = -diff
	}
	return diff <= toleranceMS
}

// BestCandidate returns the index of the lowest-scoring candidate that
// passes the duration window, or -1 when no candidate survives.
// Ties are broken by first-seen order.
func BestCandidate(source models.Track, candidates []models.CandidateMatch, toleranceMS int) int {
	best := -1
	var bestScore float64

	for i, candidate := range candidates {
		if !WithinTolerance(source, candidate, toleranceMS) {
			continue
		}
		score := Score(source, candidate)
		if best == -1 || score < bestScore {
			best = i
			bestScore = score
		}
	}

	return best
}

func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
