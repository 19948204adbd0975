package metadata

import "testing"

func TestSynthesize(t *testing.T) {
	c := Synthesize("  The Quiet Earth  ", 1985)

	if c.Title != "The Quiet Earth" {
		t.Errorf("Title = %q, want trimmed title", c.Title)
	}
	if c.Year != 1985 {
		t.Errorf("Year = %d, want 1985", c.Year)
	}
	if c.Source != SourceSynthetic {
		t.Errorf("Source = %q, want synthetic", c.Source)
	}
	if c.Confidence != ConfidenceLow {
		t.Errorf("Confidence = %q, want low", c.Confidence)
	}
	if len(c.Genres) == 0 {
		t.Error("Genres must never be empty")
	}
}

func TestSynthesize_MarkedSyntheticWhenWrapped(t *testing.T) {
	r := Single(Synthesize("Solaris", 0))
	if !r.Synthetic {
		t.Error("Single(synthetic candidate).Synthetic = false, want true")
	}
}

func TestInferGenres(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The War of the Worlds", "War"},
		{"Love Actually", "Romance"},
		{"Terror Train", "Horror"},
		{"Star Trek", "Science Fiction"},
		{"Back to the Future", "Science Fiction"},
		{"Citizen Kane", "Drama"}, // generic default
		{"", "Drama"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := InferGenres(tt.title)
			if len(got) != 1 {
				t.Fatalf("InferGenres(%q) = %v, want exactly one genre", tt.title, got)
			}
			if got[0] != tt.want {
				t.Errorf("InferGenres(%q) = %q, want %q", tt.title, got[0], tt.want)
			}
		})
	}
}
