package dialog

import "strings"

// similarityThreshold is the minimum edit-distance ratio for a fuzzy slot
// match. Users type near-miss values ("txt files" for "text"); exact matching
// would reject valid intent too often.
const similarityThreshold = 0.5

// Normalize maps a noisy raw slot value onto the first canonical value it
// matches, by case-folded substring in either direction or by similarity
// ratio above the threshold (whole value or any whitespace token of it).
// Ties break by canonical list order, not by best score. A nil raw value or
// one matching nothing normalizes to nil.
func Normalize(raw *string, canonical []string) *string {
	if raw == nil {
		return nil
	}
	folded := strings.ToLower(strings.TrimSpace(*raw))
	if folded == "" {
		return nil
	}
	tokens := strings.Fields(folded)
	for i, value := range canonical {
		c := strings.ToLower(value)
		if strings.Contains(c, folded) || strings.Contains(folded, c) {
			return &canonical[i]
		}
		if similarity(folded, c) > similarityThreshold {
			return &canonical[i]
		}
		for _, token := range tokens {
			if similarity(token, c) > similarityThreshold {
				return &canonical[i]
			}
		}
	}
	return nil
}

// similarity is an edit-distance ratio in [0, 1]: identical strings score 1.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein is the minimum number of single-character edits turning a into
// b. Runs over runes; keeps only two rows of the distance matrix.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	runesA := []rune(a)
	runesB := []rune(b)
	if len(runesA) == 0 {
		return len(runesB)
	}
	if len(runesB) == 0 {
		return len(runesA)
	}

	prev := make([]int, len(runesB)+1)
	curr := make([]int, len(runesB)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(runesA); i++ {
		curr[0] = i
		for j := 1; j <= len(runesB); j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(runesB)]
}

func min3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
