package metadata

// Merge combines two independently obtained candidates into one resolved
// record using a field-level, non-destructive policy:
//
//   - a field unset on primary is filled from secondary;
//   - description: the rich-metadata provider's text wins over any catalog
//     source, regardless of which candidate populated it first;
//   - pictureFormat: the catalog source's value is authoritative since it
//     reflects the physical medium actually catalogued;
//   - genres: no union; the rich provider's non-empty list is preferred;
//   - links, posters and identifiers accumulate from both sides.
//
// Both orderings of the arguments reach the same final field set; conflicts
// are settled by the per-field priority above, with primary winning where
// no priority applies. Merge never fails.
func Merge(primary, secondary Candidate) *Resolved {
	out := &Resolved{Candidate: primary}
	out.AddSource(primary.Source)
	out.AddSource(secondary.Source)

	fillString(out, "title", &out.Title, secondary.Title, primary.Source, secondary.Source)
	fillString(out, "description", &out.Description, secondary.Description, primary.Source, secondary.Source)
	fillString(out, "director", &out.Director, secondary.Director, primary.Source, secondary.Source)
	fillString(out, "country", &out.Country, secondary.Country, primary.Source, secondary.Source)
	fillString(out, "pictureFormat", &out.PictureFormat, secondary.PictureFormat, primary.Source, secondary.Source)
	fillString(out, "coverUrl", &out.CoverURL, secondary.CoverURL, primary.Source, secondary.Source)
	fillString(out, "infoPageUrl", &out.InfoPageURL, secondary.InfoPageURL, primary.Source, secondary.Source)
	fillString(out, "catalogNumber", &out.CatalogNumber, secondary.CatalogNumber, primary.Source, secondary.Source)
	fillString(out, "barcode", &out.Barcode, secondary.Barcode, primary.Source, secondary.Source)
	fillInt(out, "year", &out.Year, secondary.Year, primary.Source, secondary.Source)
	fillInt(out, "runtime", &out.Runtime, secondary.Runtime, primary.Source, secondary.Source)
	fillInt(out, "tmdbId", &out.TMDBID, secondary.TMDBID, primary.Source, secondary.Source)
	fillInt(out, "criticScore", &out.CriticScore, secondary.CriticScore, primary.Source, secondary.Source)

	if len(out.Cast) == 0 && len(secondary.Cast) > 0 {
		out.Cast = secondary.Cast
		out.MarkField("cast", secondary.Source)
	} else if len(out.Cast) > 0 {
		out.MarkField("cast", primary.Source)
	}

	// Genres: accept whichever list is non-empty, preferring the rich
	// provider's when both are.
	switch {
	case len(primary.Genres) > 0 && len(secondary.Genres) > 0:
		if secondary.Source.IsRich() && !primary.Source.IsRich() {
			out.Genres = secondary.Genres
			out.MarkField("genres", secondary.Source)
		} else {
			out.Genres = primary.Genres
			out.MarkField("genres", primary.Source)
		}
	case len(secondary.Genres) > 0:
		out.Genres = secondary.Genres
		out.MarkField("genres", secondary.Source)
	case len(primary.Genres) > 0:
		out.MarkField("genres", primary.Source)
	}

	// Override: a narrative description from the rich-metadata provider
	// always beats catalog text, which is often just the title restated.
	if rich, ok := pickSource(primary, secondary, Source.IsRich); ok && rich.Description != "" {
		out.Description = rich.Description
		out.MarkField("description", rich.Source)
	}

	// Override: the catalog source knows the physical medium.
	if cat, ok := pickSource(primary, secondary, Source.IsCatalog); ok && cat.PictureFormat != "" {
		out.PictureFormat = cat.PictureFormat
		out.MarkField("pictureFormat", cat.Source)
	}

	if out.Confidence == "" {
		out.Confidence = secondary.Confidence
	}

	out.Synthetic = primary.Source == SourceSynthetic && secondary.Source == SourceSynthetic
	return out
}

func fillString(r *Resolved, field string, dst *string, sec string, primarySrc, secondarySrc Source) {
	if *dst != "" {
		r.MarkField(field, primarySrc)
		return
	}
	if sec != "" {
		*dst = sec
		r.MarkField(field, secondarySrc)
	}
}

func fillInt(r *Resolved, field string, dst *int, sec int, primarySrc, secondarySrc Source) {
	if *dst != 0 {
		r.MarkField(field, primarySrc)
		return
	}
	if sec != 0 {
		*dst = sec
		r.MarkField(field, secondarySrc)
	}
}

// pickSource returns whichever candidate's source satisfies the predicate,
// checking primary first.
func pickSource(primary, secondary Candidate, match func(Source) bool) (Candidate, bool) {
	if match(primary.Source) {
		return primary, true
	}
	if match(secondary.Source) {
		return secondary, true
	}
	return Candidate{}, false
}
