package bars

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is a coarse venue type derived from the venue name.
type Category string

const (
	CategoryBrasserie Category = "Brasserie"
	CategoryCave      Category = "Cave"
	CategoryBar       Category = "Bar"
	CategoryNone      Category = ""
)

// Categories lists the selectable categories with their menu icons.
var Categories = []struct {
	Category Category
	Icon     string
}{
	{CategoryCave, "🍷"},
	{CategoryBrasserie, "🍺"},
	{CategoryBar, "🍹"},
}

// Patterns are matched against the diacritic-folded, lowercased name, so
// "bière" and "biere" or "café" and "cafe" are equivalent.
var (
	brasseriePattern = regexp.MustCompile(`brasserie|biere|beer|brasseurs?|tavern`)
	cavePattern      = regexp.MustCompile(`bar\s+a\s+vin|cave|vin|vigneron`)
	barPattern       = regexp.MustCompile(`bar|bistrot|cafe|pub`)
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldName lowercases the name and strips combining marks.
func foldName(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(folded)
}

// Classify maps a venue name to a category. The check order is a deliberate
// tie-break: a name matching both the brasserie and bar vocabularies is a
// Brasserie. Names matching no pattern family are CategoryNone.
func Classify(name string) Category {
	folded := foldName(name)
	switch {
	case brasseriePattern.MatchString(folded):
		return CategoryBrasserie
	case cavePattern.MatchString(folded):
		return CategoryCave
	case barPattern.MatchString(folded):
		return CategoryBar
	}
	return CategoryNone
}
