package schema

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// irregulars lists nouns the suffix rules get wrong, mostly singulars that
// already end in "s" ("campus" would otherwise singularize to "campu").
var irregulars = map[string]string{
	"address":    "addresses",
	"apparatus":  "apparatuses",
	"boss":       "bosses",
	"bonus":      "bonuses",
	"business":   "businesses",
	"campus":     "campuses",
	"census":     "censuses",
	"class":      "classes",
	"corpus":     "corpuses",
	"glass":      "glasses",
	"process":    "processes",
	"prospectus": "prospectuses",
	"status":     "statuses",
	"syllabus":   "syllabuses",
	"virus":      "viruses",
}

var irregularSingulars = make(map[string]string, len(irregulars))

func init() {
	for singular, plural := range irregulars {
		inflect.AddIrregular(singular, plural)
		irregularSingulars[plural] = singular
	}
}

// Pluralize applies English pluralization to the last word of a hyphenated
// entity name: "study-domain" becomes "study-domains".
func Pluralize(name string) string {
	head, last := splitLastWord(name)
	if last == "" {
		return name
	}
	if plural, ok := irregulars[last]; ok {
		return head + plural
	}
	if _, ok := irregularSingulars[last]; ok {
		return name
	}
	return head + inflect.Pluralize(last)
}

// Singularize is the inverse of Pluralize. Words that are already singular
// come back unchanged.
func Singularize(name string) string {
	head, last := splitLastWord(name)
	if last == "" {
		return name
	}
	if _, ok := irregulars[last]; ok {
		return name
	}
	if singular, ok := irregularSingulars[last]; ok {
		return head + singular
	}
	// No English plural ends in "ss".
	if strings.HasSuffix(last, "ss") {
		return name
	}
	return head + inflect.Singularize(last)
}

// CanonicalName is the entity name for a run of words as written in a
// sentence: normalized, then singularized.
func CanonicalName(words string) string {
	return Singularize(NormalizeName(words))
}

func splitLastWord(name string) (string, string) {
	i := strings.LastIndexByte(name, '-')
	if i < 0 {
		return "", name
	}
	return name[:i+1], name[i+1:]
}
