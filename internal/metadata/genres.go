package metadata

import "strings"

// genreKeywords is an ordered table of title keywords and the single genre
// each one implies. The first match wins.
var genreKeywords = []struct {
	keyword string
	genre   string
}{
	{"war", "War"},
	{"love", "Romance"},
	{"romance", "Romance"},
	{"horror", "Horror"},
	{"terror", "Horror"},
	{"star", "Science Fiction"},
	{"space", "Science Fiction"},
	{"future", "Science Fiction"},
	{"murder", "Thriller"},
	{"detective", "Mystery"},
}

// defaultGenre is used when no keyword matches.
const defaultGenre = "Drama"

// InferGenres guesses a single default genre from keywords in the title.
// The returned list is never empty.
func InferGenres(title string) []string {
	lower := strings.ToLower(title)
	for _, kw := range genreKeywords {
		if strings.Contains(lower, kw.keyword) {
			return []string{kw.genre}
		}
	}
	return []string{defaultGenre}
}
