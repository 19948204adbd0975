// Package resolve runs the resolution strategy pipeline: it classifies
// a raw identifier, tries the providers appropriate for that kind in
// priority order, extracts a candidate from the first success, and
// enriches it from secondary sources through the merge policy.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
	"github.com/yourflix/catalogd/internal/extract"
	"github.com/yourflix/catalogd/internal/identify"
	"github.com/yourflix/catalogd/internal/metadata"
	"github.com/yourflix/catalogd/internal/metadata/barcode"
	"github.com/yourflix/catalogd/internal/metadata/lddb"
	"github.com/yourflix/catalogd/internal/metadata/omdb"
	"github.com/yourflix/catalogd/internal/metadata/tmdb"
	"github.com/yourflix/catalogd/internal/metadata/websearch"
)

var (
	// ErrNotFound means every strategy was exhausted without a match.
	// Callers surface it as "no match, add details manually", never as
	// a system fault.
	ErrNotFound = errors.New("metadata not found")

	ErrNoProvidersConfigured = errors.New("no metadata providers configured")
)

// Options adjust a single resolution call.
type Options struct {
	// Hint is a companion free-text title, used to consult the
	// rich-metadata provider alongside a catalog or barcode lookup.
	Hint string

	// AllowSynthetic opts into fabricated fallback metadata when every
	// external source fails.
	AllowSynthetic bool
}

// strategy is one resolution attempt. Strategies run sequentially and
// the first one yielding a titled candidate wins.
type strategy struct {
	name string
	run  func(ctx context.Context) (*metadata.Candidate, error)
}

// Service orchestrates identifier resolution across providers.
type Service struct {
	classifier *identify.Classifier
	tmdb       TMDBClient
	omdb       OMDBClient
	catalog    CatalogClient
	search     SearchClient
	barcodes   []BarcodeClient
	cache      *Cache
	store      PersistentCache
	logger     zerolog.Logger
}

// NewService creates a resolution service with real provider clients.
func NewService(cfg *config.MetadataConfig, logger *zerolog.Logger) *Service {
	registries := make([]BarcodeClient, 0, len(cfg.Barcode.Registries))
	for _, rc := range cfg.Barcode.Registries {
		registries = append(registries, barcode.NewClient(rc, *logger))
	}

	return &Service{
		classifier: identify.MustNew(),
		tmdb:       tmdb.NewClient(cfg.TMDB, *logger),
		omdb:       omdb.NewClient(cfg.OMDB, *logger),
		catalog:    lddb.NewClient(cfg.LDDB, *logger),
		search:     websearch.NewClient(cfg.WebSearch, *logger),
		barcodes:   registries,
		cache:      NewCache(DefaultCacheConfig()),
		logger:     logger.With().Str("component", "resolve").Logger(),
	}
}

// NewServiceWithClients creates a resolution service with custom clients
// (for testing/mocking).
func NewServiceWithClients(tmdbClient TMDBClient, omdbClient OMDBClient, catalogClient CatalogClient, searchClient SearchClient, barcodeClients []BarcodeClient, logger *zerolog.Logger) *Service {
	return &Service{
		classifier: identify.MustNew(),
		tmdb:       tmdbClient,
		omdb:       omdbClient,
		catalog:    catalogClient,
		search:     searchClient,
		barcodes:   barcodeClients,
		cache:      NewCache(DefaultCacheConfig()),
		logger:     logger.With().Str("component", "resolve").Logger(),
	}
}

// SetPersistentCache sets the durable cache consulted behind the
// in-memory one.
func (s *Service) SetPersistentCache(store PersistentCache) {
	s.store = store
}

// ProviderStatus reports which providers are configured, keyed by name.
func (s *Service) ProviderStatus() map[string]bool {
	status := map[string]bool{
		s.tmdb.Name():    s.tmdb.IsConfigured(),
		s.omdb.Name():    s.omdb.IsConfigured(),
		s.catalog.Name(): s.catalog.IsConfigured(),
		s.search.Name():  s.search.IsConfigured(),
	}
	for _, b := range s.barcodes {
		status[b.Name()] = b.IsConfigured()
	}
	return status
}

// Resolve maps a raw identifier to resolved metadata. It classifies the
// input, runs the strategy pipeline for that identifier kind, and caches
// the outcome. All strategies failing yields ErrNotFound unless the
// caller opted into synthetic fallback.
func (s *Service) Resolve(ctx context.Context, raw string, opts Options) (*metadata.Resolved, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNotFound
	}

	key := cacheKey(raw, opts.Hint)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug().Str("identifier", raw).Msg("Cache hit")
		return cached, nil
	}
	if s.store != nil {
		if stored, err := s.store.GetCached(ctx, raw, opts.Hint); err == nil && stored != nil {
			s.cache.Set(key, stored)
			return stored, nil
		}
	}

	ident := s.classifier.Classify(raw)
	s.logger.Debug().
		Str("identifier", ident.Raw).
		Str("kind", string(ident.Kind)).
		Str("family", ident.Family).
		Msg("Classified identifier")

	var (
		resolved *metadata.Resolved
		err      error
	)
	switch ident.Kind {
	case identify.KindCatalogCode:
		resolved, err = s.resolveCatalog(ctx, ident, opts.Hint)
	case identify.KindBarcode:
		resolved, err = s.resolveBarcode(ctx, ident)
	default:
		resolved, err = s.resolveTitle(ctx, ident, opts.Hint)
	}

	if errors.Is(err, ErrNotFound) && opts.AllowSynthetic {
		if title := syntheticTitle(ident, opts.Hint); title != "" {
			s.logger.Info().Str("identifier", raw).Msg("All providers failed, synthesizing fallback metadata")
			resolved, err = metadata.Single(metadata.Synthesize(title, 0)), nil
		}
	}
	if err != nil {
		return nil, err
	}

	// Fabricated records never enter the caches: the synthesis opt-in is
	// per call, and a later caller without it must not be served one.
	if !resolved.Synthetic {
		s.cache.Set(key, resolved)
		if s.store != nil {
			if serr := s.store.SaveCached(ctx, raw, opts.Hint, resolved); serr != nil {
				s.logger.Warn().Err(serr).Str("identifier", raw).Msg("Failed to persist resolved metadata")
			}
		}
	}

	return resolved, nil
}

// runStrategies executes strategies in order until one yields a titled
// candidate. Failures are logged and skipped; cancellation is checked
// at strategy boundaries, not mid-call. A provider is never retried
// within one resolution.
func (s *Service) runStrategies(ctx context.Context, strategies []strategy) (*metadata.Candidate, error) {
	for _, st := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cand, err := st.run(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Str("strategy", st.name).Msg("Strategy failed")
			continue
		}
		if cand == nil || cand.Title == "" {
			s.logger.Debug().Str("strategy", st.name).Msg("Strategy produced no title")
			continue
		}

		s.logger.Debug().
			Str("strategy", st.name).
			Str("title", cand.Title).
			Msg("Strategy succeeded")
		return cand, nil
	}
	return nil, ErrNotFound
}

// catalogStrategies builds the catalog-code strategy list: a
// family-specific catalog lookup when the family is known, a generic
// catalog search, then a scoped web search as last resort.
func (s *Service) catalogStrategies(ident identify.Identifier) []strategy {
	var strategies []strategy

	if ident.Family != "" {
		strategies = append(strategies, strategy{
			name: "catalog-family",
			run: func(ctx context.Context) (*metadata.Candidate, error) {
				return s.catalogLookup(ctx, ident.Raw, true)
			},
		})
	}
	strategies = append(strategies,
		strategy{
			name: "catalog-generic",
			run: func(ctx context.Context) (*metadata.Candidate, error) {
				return s.catalogLookup(ctx, ident.Raw, false)
			},
		},
		strategy{
			name: "web-search",
			run: func(ctx context.Context) (*metadata.Candidate, error) {
				return s.webSearchLookup(ctx, ident.Raw)
			},
		},
	)
	return strategies
}

// resolveCatalog runs the catalog-code pipeline.
func (s *Service) resolveCatalog(ctx context.Context, ident identify.Identifier, hint string) (*metadata.Resolved, error) {
	cand, err := s.runStrategies(ctx, s.catalogStrategies(ident))
	if err != nil {
		return nil, err
	}
	return s.enhance(ctx, *cand, hint), nil
}

// resolveTitle queries the rich-metadata provider. A hint that is
// itself a catalog code pulls in the catalog source too, since it
// carries physical-media detail the rich provider does not have. If
// the search comes back empty and the string could plausibly be a
// catalog code after all, the catalog pipeline is tried before
// reporting NotFound.
func (s *Service) resolveTitle(ctx context.Context, ident identify.Identifier, hint string) (*metadata.Resolved, error) {
	cand, err := s.tmdbLookup(ctx, ident.Raw, 0)
	if err == nil && cand != nil && cand.Title != "" {
		resolved := metadata.Single(*cand)
		if hintIdent := s.classifier.Classify(hint); hintIdent.Kind == identify.KindCatalogCode {
			if catCand, cerr := s.runStrategies(ctx, s.catalogStrategies(hintIdent)); cerr == nil {
				resolved = metadata.Merge(*cand, *catCand)
			} else {
				s.logger.Debug().Err(cerr).Str("hint", hint).Msg("Catalog lookup for hint failed")
			}
		}
		s.withRatings(ctx, resolved)
		return resolved, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("title", ident.Raw).Msg("Rich-metadata search failed")
	}

	if s.classifier.ResemblesCatalogCode(ident.Raw) {
		s.logger.Debug().Str("identifier", ident.Raw).Msg("Title resembles a catalog code, retrying catalog pipeline")
		return s.resolveCatalog(ctx, identify.Identifier{Raw: ident.Raw, Kind: identify.KindCatalogCode}, hint)
	}

	return nil, ErrNotFound
}

// resolveBarcode tries each registry in configured priority order;
// the first hit wins.
func (s *Service) resolveBarcode(ctx context.Context, ident identify.Identifier) (*metadata.Resolved, error) {
	if len(s.barcodes) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	strategies := make([]strategy, 0, len(s.barcodes))
	for _, client := range s.barcodes {
		client := client
		strategies = append(strategies, strategy{
			name: "barcode-" + client.Name(),
			run: func(ctx context.Context) (*metadata.Candidate, error) {
				item, err := client.Lookup(ctx, ident.Raw)
				if err != nil {
					return nil, err
				}
				cand := candidateFromBarcode(item, ident.Raw)
				return &cand, nil
			},
		})
	}

	cand, err := s.runStrategies(ctx, strategies)
	if err != nil {
		return nil, err
	}
	return s.enhance(ctx, *cand, ""), nil
}

// catalogLookup fetches a catalog database page by catalog number or
// free text and extracts a candidate from it.
func (s *Service) catalogLookup(ctx context.Context, term string, byCatalogNumber bool) (*metadata.Candidate, error) {
	var (
		html     []byte
		finalURL string
		err      error
	)
	if byCatalogNumber {
		html, finalURL, err = s.catalog.SearchByCatalog(ctx, term)
	} else {
		html, finalURL, err = s.catalog.Search(ctx, term)
	}
	if err != nil {
		return nil, err
	}

	cand, err := extract.PageMetadata(html, term)
	if err != nil {
		return nil, err
	}

	cand.Source = metadata.SourceLDDB
	cand.Confidence = metadata.ConfidenceHigh
	cand.InfoPageURL = finalURL
	if cand.CoverURL != "" {
		cand.CoverURL = s.catalog.AbsoluteURL(cand.CoverURL)
	}
	return cand, nil
}

// webSearchLookup runs a site-scoped web search for the catalog code,
// follows the first catalog page link in the results, and extracts a
// candidate from that page.
func (s *Service) webSearchLookup(ctx context.Context, code string) (*metadata.Candidate, error) {
	query := fmt.Sprintf("%q site:lddb.com", code)
	html, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	links := extract.CatalogLinks(html)
	if len(links) == 0 {
		return nil, ErrNotFound
	}

	page, finalURL, err := s.catalog.FetchPage(ctx, links[0])
	if err != nil {
		return nil, err
	}

	cand, err := extract.PageMetadata(page, code)
	if err != nil {
		return nil, err
	}

	cand.Source = metadata.SourceWebSearch
	cand.Confidence = metadata.ConfidenceMedium
	cand.InfoPageURL = finalURL
	if cand.CoverURL != "" {
		cand.CoverURL = s.catalog.AbsoluteURL(cand.CoverURL)
	}
	return cand, nil
}

// tmdbLookup searches the rich-metadata provider and pulls full details
// for the best match. When a year is known, an exact-year match is
// preferred over the first result. A nil candidate with nil error means
// the search matched nothing.
func (s *Service) tmdbLookup(ctx context.Context, query string, year int) (*metadata.Candidate, error) {
	results, err := s.tmdb.SearchMovies(ctx, query, year)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	best := results[0]
	if year > 0 {
		for _, r := range results {
			if r.Year == year {
				best = r
				break
			}
		}
	}

	details, err := s.tmdb.GetMovie(ctx, best.ID)
	if err != nil {
		// Details are an enrichment; the search hit alone still counts.
		s.logger.Debug().Err(err).Int("id", best.ID).Msg("Failed to fetch movie details")
		cand := candidateFromTMDB(&best)
		return &cand, nil
	}

	cand := candidateFromTMDB(details)
	return &cand, nil
}

// enhance consults the rich-metadata provider for a candidate obtained
// from a catalog or barcode source and merges the two. The hint takes
// precedence over the extracted title as the search term. Ratings are
// filled last.
func (s *Service) enhance(ctx context.Context, cand metadata.Candidate, hint string) *metadata.Resolved {
	term := hint
	if term == "" {
		term = cand.Title
	}

	var resolved *metadata.Resolved
	rich, err := s.tmdbLookup(ctx, term, cand.Year)
	if err != nil || rich == nil {
		if err != nil {
			s.logger.Debug().Err(err).Str("term", term).Msg("Rich-metadata enhancement failed")
		}
		resolved = metadata.Single(cand)
	} else {
		resolved = metadata.Merge(cand, *rich)
	}

	s.withRatings(ctx, resolved)
	return resolved
}

// withRatings fills the critic score from the ratings provider. A
// ratings failure never degrades the result.
func (s *Service) withRatings(ctx context.Context, r *metadata.Resolved) {
	if r.CriticScore != 0 || r.Title == "" {
		return
	}

	ratings, err := s.omdb.GetRatings(ctx, r.Title, r.Year)
	if err != nil {
		if !errors.Is(err, omdb.ErrNotFound) && !errors.Is(err, omdb.ErrAPIKeyMissing) {
			s.logger.Debug().Err(err).Str("title", r.Title).Msg("Ratings lookup failed")
		}
		return
	}
	if ratings == nil {
		return
	}

	if score := ratings.CriticScore(); score > 0 {
		r.CriticScore = score
		r.AddSource(metadata.SourceOMDB)
		r.MarkField("criticScore", metadata.SourceOMDB)
	}
}

// candidateFromTMDB converts a rich-metadata result to a candidate.
func candidateFromTMDB(m *tmdb.NormalizedMovieResult) metadata.Candidate {
	return metadata.Candidate{
		Title:       m.Title,
		Year:        m.Year,
		Description: m.Overview,
		Runtime:     m.Runtime,
		Director:    m.Director,
		Cast:        m.Cast,
		Country:     m.Country,
		Genres:      m.Genres,
		CoverURL:    m.PosterURL,
		TMDBID:      m.ID,
		Source:      metadata.SourceTMDB,
		Confidence:  metadata.ConfidenceHigh,
	}
}

// candidateFromBarcode converts a registry item to a candidate. Registry
// titles often carry a "(1988)" year or format suffix.
func candidateFromBarcode(item *barcode.Item, code string) metadata.Candidate {
	title, year := extract.TitleYear(item.Title)
	cand := metadata.Candidate{
		Title:       strings.TrimSpace(title),
		Year:        year,
		Description: item.Description,
		Barcode:     code,
		Source:      metadata.SourceBarcode,
		Confidence:  metadata.ConfidenceMedium,
	}
	if len(item.Images) > 0 {
		cand.CoverURL = item.Images[0]
	}
	cand.Genres = metadata.InferGenres(cand.Title)
	return cand
}

// syntheticTitle picks the title to synthesize from: the raw input for
// free text, the hint for codes and barcodes. Without either there is
// nothing plausible to fabricate.
func syntheticTitle(ident identify.Identifier, hint string) string {
	if ident.Kind == identify.KindTitle {
		return ident.Raw
	}
	return hint
}

func cacheKey(identifier, hint string) string {
	if hint == "" {
		return identifier
	}
	return identifier + "|" + hint
}
