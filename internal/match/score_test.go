package match

import (
	"testing"

	"playlistporter/internal/models"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"identical", "hello", "hello", 0},
		{"single substitution", "hello", "hallo", 1},
		{"insertion", "hello", "helloo", 1},
		{"deletion", "hello", "hell", 1},
		{"disjoint strings", "abc", "xyz", 3},
		{"empty a is incomparable", "", "hello", IncomparableDistance},
		{"empty b is incomparable", "hello", "", IncomparableDistance},
		{"both empty incomparable", "", "", IncomparableDistance},
		{"unicode code points", "naïve", "naive", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"blinding lights", "blinding light"},
			{"the weeknd", "weeknd"},
			{"daft punk", "justice"},
		}
		for _, p := range pairs {
			if Distance(p[0], p[1]) != Distance(p[1], p[0]) {
				t.Errorf("Distance(%q, %q) not symmetric", p[0], p[1])
			}
		}
	})

	t.Run("zero only for identical", func(t *testing.T) {
		if Distance("abc", "abd") == 0 {
			t.Error("expected nonzero distance for different strings")
		}
		if Distance("abc", "abc") != 0 {
			t.Error("expected zero distance for identical strings")
		}
	})
}

func TestScore(t *testing.T) {
	src := models.Track{Title: "Blinding Lights (Official Video)", Artist: "The Weeknd"}

	t.Run("exact match after normalization scores zero", func(t *testing.T) {
		cand := models.CandidateMatch{Name: "Blinding Lights", Artist: "The Weeknd"}
		if got := Score(src, cand); got != 0 {
			t.Errorf("Score = %f, want 0", got)
		}
	})

	t.Run("artist mismatch weighted heavier than title", func(t *testing.T) {
		titleOff := models.CandidateMatch{Name: "Blinding Lightz", Artist: "The Weeknd"}
		artistOff := models.CandidateMatch{Name: "Blinding Lights", Artist: "The Weekns"}
		if Score(src, titleOff) >= Score(src, artistOff) {
			t.Errorf("expected artist mismatch (%f) to outscore title mismatch (%f)",
				Score(src, artistOff), Score(src, titleOff))
		}
	})
}

func TestBestCandidate(t *testing.T) {
	src := models.Track{Title: "Blinding Lights", Artist: "The Weeknd", DurationMS: 200000}

	t.Run("picks lowest composite score", func(t *testing.T) {
		candidates := []models.CandidateMatch{
			{DestinationID: "a", Name: "Blinding Lights (Cover)", Artist: "Someone Else", DurationMS: 200500},
			{DestinationID: "b", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 201000},
			{DestinationID: "c", Name: "Blinding Lights Karaoke", Artist: "Karaoke Stars", DurationMS: 199000},
		}
		if got := BestCandidate(src, candidates, 7000); got != 1 {
			t.Errorf("BestCandidate = %d, want 1", got)
		}
	})

	t.Run("duration filter excludes best lexical match", func(t *testing.T) {
		candidates := []models.CandidateMatch{
			// Perfect lexical match but an extended cut far outside the window.
			{DestinationID: "a", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 300000},
			{DestinationID: "b", Name: "Blinding Lights - Single", Artist: "The Weeknd", DurationMS: 201000},
		}
		if got := BestCandidate(src, candidates, 5000); got != 1 {
			t.Errorf("BestCandidate = %d, want 1", got)
		}
	})

	t.Run("no survivors returns -1", func(t *testing.T) {
		candidates := []models.CandidateMatch{
			{DestinationID: "a", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 300000},
		}
		if got := BestCandidate(src, candidates, 5000); got != -1 {
			t.Errorf("BestCandidate = %d, want -1", got)
		}
	})

	t.Run("unknown source duration disables filter", func(t *testing.T) {
		unknown := models.Track{Title: "Blinding Lights", Artist: "The Weeknd"}
		candidates := []models.CandidateMatch{
			{DestinationID: "a", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 300000},
		}
		if got := BestCandidate(unknown, candidates, 5000); got != 0 {
			t.Errorf("BestCandidate = %d, want 0", got)
		}
	})

	t.Run("unknown candidate duration disables filter", func(t *testing.T) {
		candidates := []models.CandidateMatch{
			{DestinationID: "a", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 0},
		}
		if got := BestCandidate(src, candidates, 5000); got != 0 {
			t.Errorf("BestCandidate = %d, want 0", got)
		}
	})

	t.Run("tie broken by first-seen order", func(t *testing.T) {
		candidates := []models.CandidateMatch{
			{DestinationID: "a", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 201000},
			{DestinationID: "b", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 199000},
		}
		if got := BestCandidate(src, candidates, 7000); got != 0 {
			t.Errorf("BestCandidate = %d, want 0 (first seen)", got)
		}
	})

	t.Run("unlimited tolerance", func(t *testing.T) {
		candidates := []models.CandidateMatch{
			{DestinationID: "a", Name: "Blinding Lights", Artist: "The Weeknd", DurationMS: 900000},
		}
		if got := BestCandidate(src, candidates, ToleranceUnlimited); got != 0 {
			t.Errorf("BestCandidate = %d, want 0", got)
		}
	})
}
