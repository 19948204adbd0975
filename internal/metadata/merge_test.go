package metadata

import (
	"reflect"
	"testing"
)

func catalogCandidate() Candidate {
	return Candidate{
		Title:         "Bloodsport",
		Year:          1988,
		Description:   "Bloodsport",
		Runtime:       92,
		PictureFormat: "LaserDisc",
		Genres:        []string{"Action"},
		CoverURL:      "https://www.lddb.com/covers/37062.jpg",
		InfoPageURL:   "https://www.lddb.com/laserdisc/37062/",
		CatalogNumber: "PILF-1618",
		Source:        SourceLDDB,
		Confidence:    ConfidenceHigh,
	}
}

func richCandidate() Candidate {
	return Candidate{
		Title:       "Bloodsport",
		Year:        1988,
		Description: "Frank Dux enters the Kumite, a brutal underground martial arts tournament held in Hong Kong.",
		Runtime:     92,
		Director:    "Newt Arnold",
		Cast:        []string{"Jean-Claude Van Damme", "Donald Gibb"},
		Genres:      []string{"Action", "Drama"},
		CoverURL:    "https://image.tmdb.org/t/p/w500/bloodsport.jpg",
		TMDBID:      11768,
		Source:      SourceTMDB,
		Confidence:  ConfidenceHigh,
	}
}

func TestMerge_Idempotent(t *testing.T) {
	x := richCandidate()
	got := Merge(x, x)
	if !reflect.DeepEqual(got.Candidate, x) {
		t.Errorf("Merge(x, x).Candidate = %+v, want %+v", got.Candidate, x)
	}
	if len(got.Sources) != 1 || got.Sources[0] != SourceTMDB {
		t.Errorf("Sources = %v, want [tmdb]", got.Sources)
	}
}

func TestMerge_FillsEmptyFields(t *testing.T) {
	primary := Candidate{Title: "Jaws", Source: SourceLDDB}
	secondary := Candidate{
		Title:    "Jaws",
		Year:     1975,
		Director: "Steven Spielberg",
		Cast:     []string{"Roy Scheider"},
		Source:   SourceTMDB,
	}

	got := Merge(primary, secondary)
	if got.Year != 1975 {
		t.Errorf("Year = %d, want 1975", got.Year)
	}
	if got.Director != "Steven Spielberg" {
		t.Errorf("Director = %q, want Steven Spielberg", got.Director)
	}
	if len(got.Cast) != 1 {
		t.Errorf("Cast = %v, want one entry", got.Cast)
	}
	if got.FieldSources["director"] != SourceTMDB {
		t.Errorf("FieldSources[director] = %q, want tmdb", got.FieldSources["director"])
	}
}

func TestMerge_NonDestructive(t *testing.T) {
	primary := catalogCandidate()
	secondary := richCandidate()
	secondary.Runtime = 95 // disagrees with catalog
	secondary.Year = 1989

	got := Merge(primary, secondary)

	// Set fields on primary survive unless in the explicit override set.
	if got.Runtime != primary.Runtime {
		t.Errorf("Runtime = %d, want primary's %d", got.Runtime, primary.Runtime)
	}
	if got.Year != primary.Year {
		t.Errorf("Year = %d, want primary's %d", got.Year, primary.Year)
	}
	if got.CoverURL != primary.CoverURL {
		t.Errorf("CoverURL = %q, want primary's", got.CoverURL)
	}
}

func TestMerge_DescriptionOverride(t *testing.T) {
	catalog := catalogCandidate()
	rich := richCandidate()

	// Catalog populated a description first, but the rich provider's
	// narrative must win in either call order.
	for name, got := range map[string]*Resolved{
		"catalog primary": Merge(catalog, rich),
		"rich primary":    Merge(rich, catalog),
	} {
		if got.Description != rich.Description {
			t.Errorf("%s: Description = %q, want rich provider's", name, got.Description)
		}
		if got.FieldSources["description"] != SourceTMDB {
			t.Errorf("%s: description provenance = %q, want tmdb", name, got.FieldSources["description"])
		}
	}
}

func TestMerge_PictureFormatOverride(t *testing.T) {
	catalog := catalogCandidate()
	rich := richCandidate()
	rich.PictureFormat = "DVD" // rich provider guesses wrong

	for name, got := range map[string]*Resolved{
		"catalog primary": Merge(catalog, rich),
		"rich primary":    Merge(rich, catalog),
	} {
		if got.PictureFormat != "LaserDisc" {
			t.Errorf("%s: PictureFormat = %q, want LaserDisc", name, got.PictureFormat)
		}
		if got.FieldSources["pictureFormat"] != SourceLDDB {
			t.Errorf("%s: pictureFormat provenance = %q, want lddb", name, got.FieldSources["pictureFormat"])
		}
	}
}

func TestMerge_GenresPreferRichProvider(t *testing.T) {
	catalog := catalogCandidate()
	rich := richCandidate()

	got := Merge(catalog, rich)
	if !reflect.DeepEqual(got.Genres, rich.Genres) {
		t.Errorf("Genres = %v, want rich provider's %v", got.Genres, rich.Genres)
	}

	// When the rich provider has none, the catalog list stands.
	rich.Genres = nil
	got = Merge(catalog, rich)
	if !reflect.DeepEqual(got.Genres, catalog.Genres) {
		t.Errorf("Genres = %v, want catalog's %v", got.Genres, catalog.Genres)
	}
}

func TestMerge_SameFieldSetBothOrders(t *testing.T) {
	catalog := catalogCandidate()
	rich := richCandidate()

	a := Merge(catalog, rich)
	b := Merge(rich, catalog)

	fieldsOf := func(r *Resolved) map[string]bool {
		set := map[string]bool{}
		for f := range r.FieldSources {
			set[f] = true
		}
		return set
	}

	if !reflect.DeepEqual(fieldsOf(a), fieldsOf(b)) {
		t.Errorf("populated field sets differ:\n%v\n%v", fieldsOf(a), fieldsOf(b))
	}

	// Identifiers accumulate regardless of order.
	for name, r := range map[string]*Resolved{"a": a, "b": b} {
		if r.CatalogNumber != "PILF-1618" {
			t.Errorf("%s: CatalogNumber = %q", name, r.CatalogNumber)
		}
		if r.TMDBID != 11768 {
			t.Errorf("%s: TMDBID = %d", name, r.TMDBID)
		}
		if r.InfoPageURL == "" {
			t.Errorf("%s: InfoPageURL lost in merge", name)
		}
	}
}

func TestMerge_TracksSources(t *testing.T) {
	got := Merge(catalogCandidate(), richCandidate())
	want := []Source{SourceLDDB, SourceTMDB}
	if !reflect.DeepEqual(got.Sources, want) {
		t.Errorf("Sources = %v, want %v", got.Sources, want)
	}
}
