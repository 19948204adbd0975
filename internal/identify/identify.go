// Package identify classifies raw catalogue input strings into identifier
// kinds: a free-text title, a manufacturer catalog code, or a barcode.
// Classification is a pure function of the input string; it never fails and
// never touches the network.
package identify

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the classified type of an identifier.
type Kind string

const (
	// KindTitle is a free-text movie title.
	KindTitle Kind = "title"
	// KindCatalogCode is a manufacturer-assigned catalog number.
	KindCatalogCode Kind = "catalog"
	// KindBarcode is a UPC/EAN barcode.
	KindBarcode Kind = "barcode"
)

// Identifier is the result of classifying a raw input string.
type Identifier struct {
	Raw    string `json:"raw"`
	Kind   Kind   `json:"kind"`
	Family string `json:"family,omitempty"` // catalog family, empty when unknown
}

//go:embed families.yaml
var familiesYAML []byte

// familyDefinitions mirrors the embedded YAML definition file.
type familyDefinitions struct {
	Families []familyEntry `yaml:"families"`
}

type familyEntry struct {
	Prefix string `yaml:"prefix"`
	Name   string `yaml:"name"`
}

// pattern is one entry in the ordered classification table.
// The first matching pattern decides the kind.
type pattern struct {
	re   *regexp.Regexp
	kind Kind
}

var (
	// UPC-E (8), UPC-A (12) and EAN-13 (13) are the shapes that show up
	// on physical media packaging.
	barcodeRe = regexp.MustCompile(`^(\d{8}|\d{12}|\d{13})$`)

	// Manufacturer catalog codes: short alphabetic prefix, 3-6 digits,
	// optional hyphen or space between them.
	catalogRe = regexp.MustCompile(`^([A-Za-z]{2,6})[- ]?(\d{3,6})$`)

	// A looser shape used only for re-inspection of free-text input that
	// produced no title matches (e.g. "pilf 1618" typed with extra parts).
	relaxedCatalogRe = regexp.MustCompile(`^[A-Za-z]{2,6}[- ]?\d{2,7}[A-Za-z]?$`)
)

// Classifier maps raw strings to Identifiers using an ordered pattern table
// and a catalog-family prefix table.
type Classifier struct {
	patterns []pattern
	families []familyEntry // sorted by prefix length, longest first
}

// New creates a Classifier from the embedded family definitions.
func New() (*Classifier, error) {
	var defs familyDefinitions
	if err := yaml.Unmarshal(familiesYAML, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse family definitions: %w", err)
	}
	return newClassifier(defs.Families), nil
}

// MustNew is like New but panics on a malformed embedded definition file.
func MustNew() *Classifier {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// NewWithFamilies creates a Classifier with an explicit family table,
// bypassing the embedded definitions.
func NewWithFamilies(families map[string]string) *Classifier {
	entries := make([]familyEntry, 0, len(families))
	for prefix, name := range families {
		entries = append(entries, familyEntry{Prefix: prefix, Name: name})
	}
	return newClassifier(entries)
}

func newClassifier(families []familyEntry) *Classifier {
	sorted := make([]familyEntry, len(families))
	copy(sorted, families)
	// Longest prefix first so "PILF" wins over a hypothetical "PI".
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	return &Classifier{
		patterns: []pattern{
			{barcodeRe, KindBarcode},
			{catalogRe, KindCatalogCode},
		},
		families: sorted,
	}
}

// Classify maps a raw string to an Identifier. It is total: unrecognized
// strings classify as a free-text title.
func (c *Classifier) Classify(raw string) Identifier {
	trimmed := strings.TrimSpace(raw)
	id := Identifier{Raw: trimmed, Kind: KindTitle}

	for _, p := range c.patterns {
		if !p.re.MatchString(trimmed) {
			continue
		}
		id.Kind = p.kind
		if p.kind == KindCatalogCode {
			if m := catalogRe.FindStringSubmatch(trimmed); m != nil {
				id.Family = c.familyFor(m[1])
			}
		}
		return id
	}

	return id
}

// ResemblesCatalogCode reports whether a string that classified as a title
// could plausibly be a catalog code on closer inspection. Used by the
// resolution pipeline to fall back from a failed title search.
func (c *Classifier) ResemblesCatalogCode(raw string) bool {
	return relaxedCatalogRe.MatchString(strings.TrimSpace(raw))
}

// familyFor returns the family name for an alphabetic catalog prefix,
// or empty if the prefix is unknown.
func (c *Classifier) familyFor(prefix string) string {
	upper := strings.ToUpper(prefix)
	for _, f := range c.families {
		if upper == strings.ToUpper(f.Prefix) {
			return f.Name
		}
	}
	return ""
}

var defaultClassifier = MustNew()

// Classify maps a raw string to an Identifier using the default classifier.
func Classify(raw string) Identifier {
	return defaultClassifier.Classify(raw)
}
