package resolve

import (
	"context"

	"github.com/yourflix/catalogd/internal/metadata"
	"github.com/yourflix/catalogd/internal/metadata/barcode"
	"github.com/yourflix/catalogd/internal/metadata/omdb"
	"github.com/yourflix/catalogd/internal/metadata/tmdb"
)

// TMDBClient defines the interface for rich-metadata provider operations.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedMovieResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.NormalizedMovieResult, error)
}

// OMDBClient defines the interface for ratings provider operations.
type OMDBClient interface {
	Name() string
	IsConfigured() bool
	GetRatings(ctx context.Context, title string, year int) (*omdb.NormalizedRatings, error)
}

// CatalogClient defines the interface for catalog database page fetches.
// All methods return raw HTML plus the final URL after redirects.
type CatalogClient interface {
	Name() string
	IsConfigured() bool
	SearchByCatalog(ctx context.Context, code string) ([]byte, string, error)
	Search(ctx context.Context, term string) ([]byte, string, error)
	FetchPage(ctx context.Context, pageURL string) ([]byte, string, error)
	AbsoluteURL(ref string) string
}

// SearchClient defines the interface for the last-resort web search.
type SearchClient interface {
	Name() string
	IsConfigured() bool
	Search(ctx context.Context, query string) ([]byte, error)
}

// BarcodeClient defines the interface for one barcode registry.
type BarcodeClient interface {
	Name() string
	IsConfigured() bool
	Lookup(ctx context.Context, code string) (*barcode.Item, error)
}

// PersistentCache stores resolved records across restarts. The in-memory
// cache sits in front of it; a nil error with a nil record means a miss.
type PersistentCache interface {
	GetCached(ctx context.Context, identifier, hint string) (*metadata.Resolved, error)
	SaveCached(ctx context.Context, identifier, hint string, r *metadata.Resolved) error
}
