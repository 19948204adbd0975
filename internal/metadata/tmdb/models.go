package tmdb

// SearchMoviesResponse is the TMDB movie search response.
type SearchMoviesResponse struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalResults int           `json:"total_results"`
	TotalPages   int           `json:"total_pages"`
}

// MovieResult is a single movie in TMDB search results.
type MovieResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
	VoteCount   int     `json:"vote_count"`
}

// MovieDetails is the TMDB movie details response with credits appended.
type MovieDetails struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	Overview            string              `json:"overview"`
	ReleaseDate         string              `json:"release_date"`
	Runtime             int                 `json:"runtime"`
	ImdbID              string              `json:"imdb_id"`
	PosterPath          *string             `json:"poster_path"`
	Genres              []Genre             `json:"genres"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	Credits             *Credits            `json:"credits"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductionCountry is a TMDB production country entry.
type ProductionCountry struct {
	ISO3166_1 string `json:"iso_3166_1"`
	Name      string `json:"name"`
}

// Credits holds the cast and crew for a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is a single cast credit.
type CastMember struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// CrewMember is a single crew credit.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// ErrorResponse is the TMDB API error envelope.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// NormalizedMovieResult is a provider-neutral movie record.
type NormalizedMovieResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Overview    string   `json:"overview"`
	Runtime     int      `json:"runtime,omitempty"`
	Director    string   `json:"director,omitempty"`
	Cast        []string `json:"cast,omitempty"`
	Country     string   `json:"country,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	ImdbID      string   `json:"imdbId,omitempty"`
}
