package metadata

import "strings"

// Synthesize fabricates minimal plausible metadata from the title alone.
// It is used only when every external source has failed and the caller
// explicitly opted in. The record is tagged SourceSynthetic so merge and
// display logic can warn the user.
func Synthesize(title string, year int) Candidate {
	trimmed := strings.TrimSpace(title)
	return Candidate{
		Title:      trimmed,
		Year:       year,
		Genres:     InferGenres(trimmed),
		Source:     SourceSynthetic,
		Confidence: ConfidenceLow,
	}
}
