// Package metadata defines the candidate and resolved metadata records
// produced by the resolution engine, and the merge policy that combines
// candidates from independent sources without discarding known data.
package metadata

// Source identifies which external provider produced a value.
type Source string

const (
	SourceTMDB      Source = "tmdb"
	SourceOMDB      Source = "omdb"
	SourceLDDB      Source = "lddb"
	SourceBarcode   Source = "barcode"
	SourceWebSearch Source = "websearch"
	SourceSynthetic Source = "synthetic"
)

// IsRich reports whether the source is the rich-metadata provider, whose
// narrative descriptions are trusted over catalog-database text.
func (s Source) IsRich() bool {
	return s == SourceTMDB
}

// IsCatalog reports whether the source is a catalog database. Catalog
// sources are authoritative for the physical picture format but their
// descriptions are frequently just the title restated.
func (s Source) IsCatalog() bool {
	return s == SourceLDDB || s == SourceWebSearch
}

// Confidence grades how reliable a candidate's extraction was.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Candidate is a sparse metadata record obtained from a single provider
// response. A candidate is never mutated after creation; enrichment
// produces a new candidate that is merged, not patched in place.
type Candidate struct {
	Title         string     `json:"title,omitempty"`
	Year          int        `json:"year,omitempty"`
	Description   string     `json:"description,omitempty"`
	Runtime       int        `json:"runtime,omitempty"` // minutes
	Director      string     `json:"director,omitempty"`
	Cast          []string   `json:"cast,omitempty"`
	Country       string     `json:"country,omitempty"`
	PictureFormat string     `json:"pictureFormat,omitempty"`
	Genres        []string   `json:"genres,omitempty"`
	CoverURL      string     `json:"coverUrl,omitempty"`
	InfoPageURL   string     `json:"infoPageUrl,omitempty"`
	CatalogNumber string     `json:"catalogNumber,omitempty"`
	Barcode       string     `json:"barcode,omitempty"`
	TMDBID        int        `json:"tmdbId,omitempty"`
	CriticScore   int        `json:"criticScore,omitempty"` // percent
	Source        Source     `json:"source"`
	Confidence    Confidence `json:"confidence,omitempty"`
}

// Resolved is the final record returned to the caller: the merged superset
// of fields with per-field provenance retained for debugging. Ownership
// passes to the caller, which is responsible for persistence.
type Resolved struct {
	Candidate

	// Sources lists every provider that contributed, in consultation order.
	Sources []Source `json:"sources"`

	// FieldSources records which provider won each populated field.
	FieldSources map[string]Source `json:"fieldSources,omitempty"`

	// Synthetic marks records fabricated by the fallback generator so
	// downstream display logic can warn the user.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Single wraps a lone candidate as a resolved record when only one source
// was consulted.
func Single(c Candidate) *Resolved {
	return &Resolved{
		Candidate: c,
		Sources:   []Source{c.Source},
		Synthetic: c.Source == SourceSynthetic,
	}
}

// AddSource appends a provider to the consultation list if not present.
func (r *Resolved) AddSource(s Source) {
	for _, existing := range r.Sources {
		if existing == s {
			return
		}
	}
	r.Sources = append(r.Sources, s)
}

// MarkField records the winning source for a field.
func (r *Resolved) MarkField(field string, s Source) {
	if r.FieldSources == nil {
		r.FieldSources = make(map[string]Source)
	}
	r.FieldSources[field] = s
}
