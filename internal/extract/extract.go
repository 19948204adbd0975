// Package extract pulls structured metadata out of catalog pages and
// search-result HTML. Extraction is layered: a structured label/value
// scan, then a regex pass over the whole page text, then default
// inference for fields that must never be empty.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yourflix/catalogd/internal/metadata"
)

// ErrNoTitle is returned when no usable title can be extracted. A page
// without a title is treated as no match, not a partial result.
var ErrNoTitle = errors.New("no title found in page")

const (
	castLimit          = 5
	descriptionMinLen  = 50
	descriptionMaxLen  = 500
	catalogLinkPattern = "/laserdisc/"
)

var (
	yearParenRe = regexp.MustCompile(`\((\d{4})\)`)
	bareYearRe  = regexp.MustCompile(`\d{4}`)
	bracketRe   = regexp.MustCompile(`\s*\[[^\]]*\]`)
	onFormatRe  = regexp.MustCompile(`(?i)\s+on\s+(LD\s+)?(LaserDisc|Laserdisc|DVD|Blu-ray|VHS|CED)\s*$`)
	runtimeRe   = regexp.MustCompile(`(\d{2,3})`)
	directorRe  = regexp.MustCompile(`(?i)director[:\s]+([A-Z][\w.\-']+(?:\s+[A-Z][\w.\-']+){0,3})`)
	countryRe   = regexp.MustCompile(`(?i)country[:\s]+([A-Z][\w\s]{1,30}?)(?:\n|$|[<,])`)
)

// boilerplateTitles are page titles that mean "no result", not a film.
var boilerplateTitles = map[string]bool{
	"laserdisc database": true,
	"database":           true,
	"search":             true,
	"search results":     true,
	"catalog":            true,
	"not found":          true,
}

// sitePrefixes are site-name prefixes stripped from <title> text.
var sitePrefixes = []string{
	"LaserDisc Database - ",
	"LDDb - ",
	"LDDb.com - ",
}

// PageMetadata extracts a metadata candidate from a catalog page.
// originTerm is the identifier that led to this page; it is recorded
// as the catalog number when the value resembles one. The caller tags
// the returned candidate with its source and confidence.
func PageMetadata(html []byte, originTerm string) (*metadata.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cand := &metadata.Candidate{}

	// Tier 1: page title plus structured label/value pairs.
	title := CleanTitle(doc.Find("title").First().Text())
	if title == "" {
		title = CleanTitle(doc.Find("h1").First().Text())
	}
	if t, y := TitleYear(title); y > 0 {
		title, cand.Year = t, y
	}
	cand.Title = title

	scanLabels(doc, cand)
	scanPageChrome(doc, cand)

	// Tier 2: regex over the whole page text for fields tier 1 missed.
	regexFallback(doc.Text(), cand)

	if cand.Title == "" {
		return nil, ErrNoTitle
	}

	// Tier 3: inferred defaults.
	if len(cand.Genres) == 0 {
		cand.Genres = metadata.InferGenres(cand.Title)
	}

	if cand.CatalogNumber == "" && originTerm != "" && !strings.EqualFold(originTerm, cand.Title) {
		cand.CatalogNumber = originTerm
	}

	return cand, nil
}

// CleanTitle strips site boilerplate from a page title. It removes a
// known site-name prefix, bracketed catalog numbers, and a trailing
// "on <format>" phrase. Titles that are pure boilerplate reject to "".
func CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	for _, prefix := range sitePrefixes {
		if strings.HasPrefix(title, prefix) {
			title = title[len(prefix):]
			break
		}
	}
	title = bracketRe.ReplaceAllString(title, "")
	title = onFormatRe.ReplaceAllString(title, "")
	title = strings.TrimSpace(strings.Trim(title, "-– "))

	if boilerplateTitles[strings.ToLower(title)] {
		return ""
	}
	return title
}

// TitleYear splits a "Title (1988)" string into title and year.
// The year is zero when no parenthesized 4-digit year is present.
func TitleYear(s string) (string, int) {
	m := yearParenRe.FindStringSubmatchIndex(s)
	if m == nil {
		return s, 0
	}
	year, _ := strconv.Atoi(s[m[2]:m[3]])
	title := strings.TrimSpace(s[:m[0]] + s[m[1]:])
	return title, year
}

// CatalogLinks extracts catalog page links from a search-result page.
// Search engines wrap result hrefs in a /url?q=<target> redirect;
// those are unwrapped first. Only links into a catalog title page are
// kept, in page order.
func CatalogLinks(html []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = unwrapRedirect(href)

		if !strings.Contains(href, "lddb.com") || !strings.Contains(href, catalogLinkPattern) {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})

	return links
}

// unwrapRedirect turns a search-engine /url?q=<target> href into the
// target URL. Non-redirect hrefs pass through unchanged.
func unwrapRedirect(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	return href
}

// scanLabels walks label/value pairs in the page markup: definition
// lists (dt/dd) and two-column table rows (th/td).
func scanLabels(doc *goquery.Document, cand *metadata.Candidate) {
	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextFiltered("dd")
		if dd.Length() == 0 {
			return
		}
		assignLabel(cand, dt.Text(), dd.Text())
	})

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		label := tr.Find("th").First().Text()
		value := tr.Find("td").First().Text()
		if label == "" {
			cells := tr.Find("td")
			if cells.Length() < 2 {
				return
			}
			label = cells.Eq(0).Text()
			value = cells.Eq(1).Text()
		}
		assignLabel(cand, label, value)
	})
}

// assignLabel maps one label/value pair onto a candidate field. Set
// fields are never overwritten; the first occurrence on the page wins.
func assignLabel(cand *metadata.Candidate, label, value string) {
	label = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":")))
	value = strings.TrimSpace(value)
	if label == "" || value == "" {
		return
	}

	switch {
	case label == "country" && cand.Country == "":
		cand.Country = value
	case (label == "released" || label == "year") && cand.Year == 0:
		if m := bareYearRe.FindString(value); m != "" {
			cand.Year, _ = strconv.Atoi(m)
		}
	case label == "category" && len(cand.Genres) == 0:
		cand.Genres = []string{value}
	case (label == "length" || label == "runtime") && cand.Runtime == 0:
		if m := runtimeRe.FindString(value); m != "" {
			cand.Runtime, _ = strconv.Atoi(m)
		}
	case label == "picture" && cand.PictureFormat == "":
		cand.PictureFormat = value
	case label == "director" && cand.Director == "":
		cand.Director = value
	case (label == "reference" || label == "catalog number" || label == "cat.no") && cand.CatalogNumber == "":
		cand.CatalogNumber = value
	case (label == "upc" || label == "ean" || label == "barcode") && cand.Barcode == "":
		cand.Barcode = value
	}
}

// scanPageChrome pulls fields from the page body outside label tables:
// the cover image, cast links, and a narrative description paragraph.
func scanPageChrome(doc *goquery.Document, cand *metadata.Candidate) {
	if cand.CoverURL == "" {
		doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, _ := img.Attr("src")
			lower := strings.ToLower(src)
			if strings.Contains(lower, "cover") || strings.Contains(lower, "poster") {
				cand.CoverURL = src
				return false
			}
			return true
		})
	}

	if len(cand.Cast) == 0 {
		seen := make(map[string]bool)
		doc.Find(`a[href*="/person/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			name := strings.TrimSpace(a.Text())
			if name == "" || seen[name] {
				return true
			}
			seen[name] = true
			cand.Cast = append(cand.Cast, name)
			return len(cand.Cast) < castLimit
		})
	}

	if cand.Description == "" {
		doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			if len(text) < descriptionMinLen {
				return true
			}
			if len(text) > descriptionMaxLen {
				text = text[:descriptionMaxLen]
			}
			cand.Description = text
			return false
		})
	}
}

// regexFallback scans the full page text for loose field patterns.
// Only fields still unset after the structured scan are filled.
func regexFallback(text string, cand *metadata.Candidate) {
	if cand.Year == 0 {
		if m := yearParenRe.FindStringSubmatch(text); m != nil {
			cand.Year, _ = strconv.Atoi(m[1])
		}
	}
	if cand.Director == "" {
		if m := directorRe.FindStringSubmatch(text); m != nil {
			cand.Director = strings.TrimSpace(m[1])
		}
	}
	if cand.Country == "" {
		if m := countryRe.FindStringSubmatch(text); m != nil {
			cand.Country = strings.TrimSpace(m[1])
		}
	}
}
