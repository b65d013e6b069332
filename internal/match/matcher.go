// Package match scores loosely-typed, possibly phonetically-spelled Uzbek
// names against account-holder records. Scoring is deterministic: a fixed
// normalization pipeline followed by a tiered similarity rule, no blended
// distances.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// cyrToLat maps Uzbek Cyrillic letters to their Latin working forms.
// Some letters expand to two characters.
var cyrToLat = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "j", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "x", 'ц': "s", 'ч': "ch", 'ш': "sh", 'ъ': "", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
	'қ': "q", 'ғ': "g'", 'ҳ': "h", 'ў': "o'",
}

// apostrophes lists the variants folded to a plain ASCII apostrophe.
const apostrophes = "'`ʻ’‘"

// commonSuffixes are name suffixes stripped to generate query variants,
// tried longest-first so "iddin" wins over a shorter overlap.
var commonSuffixes = []string{"ulloh", "iddin", "uddin", "quli", "jon", "bek", "xon", "hon", "qul"}

// Similarity tiers. The first matching tier wins: exact, then edit
// distance 1, then 2, then prefix, then containment.
const (
	scoreExact     = 1.0
	scoreDistance1 = 0.85
	scoreDistance2 = 0.70
	scorePrefix    = 0.75
	scoreContains  = 0.55
)

// combinedMinQueryLen gates scoring against the full combined name: short
// queries produce too many false positives against multi-word strings.
const combinedMinQueryLen = 6

// Matcher scores a query name against candidate full names.
type Matcher struct {
	phonetic bool
}

// New creates a matcher. With phonetic enabled, known digraphs are folded
// to single symbols before comparison so spelling variants of the same
// sound compare equal.
func New(phonetic bool) *Matcher {
	return &Matcher{phonetic: phonetic}
}

// Score returns the best tier similarity between the query and the full
// name, across all query variants and name targets.
func (m *Matcher) Score(query, fullName string) float64 {
	qn := Normalize(query)
	fn := Normalize(fullName)

	toks := tokenize(fn)
	if len(toks) == 0 {
		return 0
	}
	given := toks[0]
	surname := ""
	if len(toks) > 1 {
		surname = toks[len(toks)-1]
	}
	combined := strings.Join(toks, " ")
	useCombined := len([]rune(qn)) >= combinedMinQueryLen

	if m.phonetic {
		given = foldPhonetic(given)
		surname = foldPhonetic(surname)
		combined = foldPhonetic(combined)
	}

	best := 0.0
	for _, qv := range queryVariants(qn) {
		if m.phonetic {
			qv = foldPhonetic(qv)
		}
		best = max(best, tierSimilarity(qv, given))
		best = max(best, tierSimilarity(qv, surname))
		if useCombined {
			best = max(best, tierSimilarity(qv, combined))
		}
	}
	return best
}

// Normalize maps a name to its canonical comparison form: Cyrillic to
// Latin, diacritics stripped, apostrophes folded, lowercased, restricted
// to alphanumerics/space/apostrophe/hyphen, whitespace collapsed, and
// elongated spellings compressed.
func Normalize(s string) string {
	s = transliterate(strings.TrimSpace(s))
	s = stripDiacritics(s)
	s = foldApostrophes(s)
	s = strings.ToLower(s)
	s = restrictCharset(s)
	s = strings.Join(strings.Fields(s), " ")
	s = collapseElongations(s)
	return s
}

func transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if lat, ok := cyrToLat[unicode.ToLower(r)]; ok {
			b.WriteString(lat)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripDiacritics decomposes to NFD, drops combining marks, and
// recomposes to NFC.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

func foldApostrophes(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(apostrophes, r) {
			return '\''
		}
		return r
	}, s)
}

func restrictCharset(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '\'' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseElongations compresses runs of 3+ identical characters to 2,
// then runs of repeated vowels to 1, defeating spellings like "Aaaali".
func collapseElongations(s string) string {
	runes := []rune(s)

	var out []rune
	run := 0
	for i, r := range runes {
		if i > 0 && r == runes[i-1] {
			run++
		} else {
			run = 1
		}
		if run <= 2 {
			out = append(out, r)
		}
	}

	var final []rune
	for i, r := range out {
		if i > 0 && r == final[len(final)-1] && isVowel(r) {
			continue
		}
		final = append(final, r)
	}
	return string(final)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// tokenize splits a full name on whitespace and hyphens.
func tokenize(fullName string) []string {
	var toks []string
	for _, part := range strings.Fields(fullName) {
		for _, t := range strings.Split(part, "-") {
			if t != "" {
				toks = append(toks, t)
			}
		}
	}
	return toks
}

// foldPhonetic collapses digraphs and drops apostrophe modifiers so
// spelling variants of the same sound compare equal.
func foldPhonetic(s string) string {
	r := strings.NewReplacer("sh", "š", "ch", "č", "ng", "ŋ", "kh", "x")
	s = r.Replace(s)
	s = strings.ReplaceAll(s, "g'", "g")
	s = strings.ReplaceAll(s, "o'", "o")
	return s
}

// stripSuffix removes the longest matching common suffix, provided at
// least two characters of root remain.
func stripSuffix(s string) string {
	for _, suf := range commonSuffixes {
		if strings.HasSuffix(s, suf) && len(s) > len(suf)+1 {
			return s[:len(s)-len(suf)]
		}
	}
	return s
}

// queryVariants returns the query plus up to two successive
// suffix-stripped forms, deduplicated, order preserved.
func queryVariants(q string) []string {
	v1 := stripSuffix(q)
	v2 := v1
	if v1 != q {
		v2 = stripSuffix(v1)
	}

	var out []string
	seen := make(map[string]bool, 3)
	for _, v := range []string{q, v1, v2} {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// tierSimilarity applies the ordered tier rule between a query variant x
// and a candidate target y, returning the first matching tier.
func tierSimilarity(x, y string) float64 {
	if x == "" || y == "" {
		return 0
	}
	if x == y {
		return scoreExact
	}
	switch damerauLevenshtein(x, y) {
	case 1:
		return scoreDistance1
	case 2:
		return scoreDistance2
	}
	xlen := len([]rune(x))
	if xlen >= 3 && strings.HasPrefix(y, x) {
		return scorePrefix
	}
	if xlen >= 4 && strings.Contains(y, x) {
		return scoreContains
	}
	return 0
}

// damerauLevenshtein computes edit distance with adjacent transpositions.
func damerauLevenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	dp := make([][]int, la+1)
	for i := range dp {
		dp[i] = make([]int, lb+1)
		dp[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			dp[i][j] = min(dp[i-1][j]+1, dp[i][j-1]+1, dp[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				dp[i][j] = min(dp[i][j], dp[i-2][j-2]+1)
			}
		}
	}
	return dp[la][lb]
}
