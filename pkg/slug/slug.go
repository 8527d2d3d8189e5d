package slug

import (
	"regexp"
	"strings"
)

// MaxLength bounds generated slugs; longer ones are cut at a word boundary.
const MaxLength = 120

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var transliterator = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ø", "o",
	"ú", "u", "ù", "u", "û", "u",
	"ñ", "n", "ß", "ss", "æ", "ae", "œ", "oe",
)

// Generate turns a display name into a lowercase, hyphen-separated slug,
// e.g. "Café Au Lait" becomes "cafe-au-lait". Common Latin diacritics are
// folded to ASCII; anything else non-alphanumeric becomes a separator.
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	// ToLower maps "İ" to "i" plus a combining dot; drop the dot.
	s = strings.ReplaceAll(s, "\u0307", "")
	s = transliterator.Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLength {
		s = s[:MaxLength]
		if i := strings.LastIndexByte(s, '-'); i > 0 {
			s = s[:i]
		}
	}
	return s
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return s != "" && len(s) <= MaxLength && Generate(s) == s
}
