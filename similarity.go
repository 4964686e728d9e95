package ncdiff

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scorer rates the similarity of two names on a 0-1 scale, where 1 means
// identical. Scorers must be pure and symmetric
type Scorer func(a, b string) float64

// ScoringFunction names a built-in Scorer
type ScoringFunction string

const (
	// EditDistance scores by normalized Levenshtein distance
	EditDistance = ScoringFunction("edit-distance")
	// TokenOverlap scores by the Jaccard ratio of name tokens, where tokens
	// are split on punctuation, camelCase & letter/digit boundaries
	TokenOverlap = ScoringFunction("token-overlap")
)

// Scorer returns the scoring func f names, nil when f is unrecognized
func (f ScoringFunction) Scorer() Scorer {
	switch f {
	case EditDistance:
		return EditDistanceSimilarity
	case TokenOverlap:
		return TokenOverlapSimilarity
	default:
		return nil
	}
}

// EditDistanceSimilarity is 1 - levenshtein(a, b) / max(len(a), len(b)),
// measured in runes. comparison is case sensitive, so distinct names always
// score below 1
func EditDistanceSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein calculates edit distance keeping two rows of the matrix
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(
				prev[j-1]+cost, // substitution
				cur[j-1]+1,     // insertion
				prev[j]+1,      // deletion
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// TokenOverlapSimilarity is the size of the intersection of both names'
// token sets over the size of their union. "air_temp" and "AirTemp" score 1,
// "air_temp" and "sea_temp" score 1/3
func TokenOverlapSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for tok := range ta {
		if tb[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range tokenize(s) {
		set[tok] = true
	}
	return set
}

// tokenize splits a name into lower-cased word tokens:
//
//	"surfaceTemp_2m" -> [surface temp 2 m]
//	"HTTPServer"     -> [http server]
func tokenize(s string) []string {
	var (
		toks []string
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	var prev rune
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			prev = 0
			continue
		}
		if prev != 0 {
			switch {
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				flush()
			case unicode.IsLower(r) && unicode.IsUpper(prev) && cur.Len() > utf8.RuneLen(prev):
				// end of an acronym: "HTTPServer" splits before the "S"
				word := cur.String()
				cur.Reset()
				toks = append(toks, strings.ToLower(word[:len(word)-utf8.RuneLen(prev)]))
				cur.WriteRune(prev)
			}
		}
		cur.WriteRune(r)
		prev = r
	}
	flush()
	return toks
}
