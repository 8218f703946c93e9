package resolve

import "strings"

// honorifics stripped during normalization
var honorifics = map[string]bool{
	"dr":    true,
	"dr.":   true,
	"prof":  true,
	"prof.": true,
	"mr":    true,
	"mr.":   true,
	"mrs":   true,
	"mrs.":  true,
	"ms":    true,
	"ms.":   true,
	"sir":   true,
	"dame":  true,
}

// normalizeName case-folds a mention, strips honorifics and trims
// surrounding punctuation from each token.
func normalizeName(mention string) []string {
	fields := strings.Fields(strings.ToLower(mention))
	var tokens []string
	for _, f := range fields {
		if honorifics[f] {
			continue
		}
		f = strings.Trim(f, ",;:()[]\"'")
		if f == "" {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// isInitial reports whether a token is a single-letter initial ("j" or "j.")
func isInitial(tok string) bool {
	tok = strings.TrimSuffix(tok, ".")
	return len(tok) == 1
}

// tokensMatch compares two name tokens, expanding initials: "j." matches
// "john", full tokens must be equal.
func tokensMatch(a, b string) bool {
	a = strings.TrimSuffix(a, ".")
	b = strings.TrimSuffix(b, ".")
	if a == b {
		return true
	}
	if len(a) == 1 && strings.HasPrefix(b, a) {
		return true
	}
	if len(b) == 1 && strings.HasPrefix(a, b) {
		return true
	}
	return false
}

// surname returns the last token of a normalized name, or ""
func surname(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// nameSimilarity scores two normalized names in [0,1] by greedy token
// alignment with initials expansion.
func nameSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	used := make([]bool, len(b))
	matches := 0
	for _, ta := range a {
		for j, tb := range b {
			if !used[j] && tokensMatch(ta, tb) {
				used[j] = true
				matches++
				break
			}
		}
	}
	return float64(2*matches) / float64(len(a)+len(b))
}

// contextOverlap computes a Jaccard overlap of context word sets,
// ignoring short stop-like words.
func contextOverlap(a, b string) float64 {
	setA := contextTokens(a)
	setB := contextTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func contextTokens(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ",;:.()[]\"'")
		if len(f) < 4 { // skip articles, prepositions, initials
			continue
		}
		set[f] = true
	}
	return set
}
