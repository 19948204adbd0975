package omdb

// Response is the OMDb API response for a title lookup.
type Response struct {
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	ImdbID     string   `json:"imdbID"`
	ImdbRating string   `json:"imdbRating"`
	ImdbVotes  string   `json:"imdbVotes"`
	Metascore  string   `json:"Metascore"`
	Ratings    []Rating `json:"Ratings"`
	Response   string   `json:"Response"`
	Error      string   `json:"Error"`
}

// Rating is a single rating source entry.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// NormalizedRatings holds parsed ratings from OMDb.
type NormalizedRatings struct {
	ImdbRating     float64 `json:"imdbRating,omitempty"`
	ImdbVotes      int     `json:"imdbVotes,omitempty"`
	Metacritic     int     `json:"metacritic,omitempty"`
	RottenTomatoes int     `json:"rottenTomatoes,omitempty"` // percent
}

// CriticScore returns the best available critic score as a percentage,
// preferring Rotten Tomatoes over Metacritic. Zero means no score.
func (r *NormalizedRatings) CriticScore() int {
	if r.RottenTomatoes > 0 {
		return r.RottenTomatoes
	}
	return r.Metacritic
}
