package matcher

import (
	"sort"
	"strings"
)

// TokenSetRatio scores two normalized strings on a 0-100 scale, ignoring
// token order and duplicates. When one token set contains the other the
// score is 100. Otherwise the sorted intersection is compared against each
// side's remainder and the best Indel similarity wins.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var inter, diffAB, diffBA []string
	for t := range tokensA {
		if tokensB[t] {
			inter = append(inter, t)
		} else {
			diffAB = append(diffAB, t)
		}
	}
	for t := range tokensB {
		if !tokensA[t] {
			diffBA = append(diffBA, t)
		}
	}

	if len(inter) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sect := joinSorted(inter)
	ab := joinSorted(diffAB)
	ba := joinSorted(diffBA)

	best := indelRatio([]rune(ab), []rune(ba))
	if sect == "" {
		return best
	}

	// "sect" vs "sect ab": the shared prefix only costs the separator plus
	// the remainder, so the distance is len(ab)+1.
	sectLen := runeLen(sect)
	abLen := runeLen(ab)
	baLen := runeLen(ba)

	sectAB := 100 * (1 - float64(abLen+1)/float64(2*sectLen+1+abLen))
	sectBA := 100 * (1 - float64(baLen+1)/float64(2*sectLen+1+baLen))

	return max(best, sectAB, sectBA)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func joinSorted(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}

// indelRatio is the normalized Indel similarity: 100 * (1 - dist/(len(a)+len(b)))
// where dist counts insertions and deletions only.
func indelRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	dist := total - 2*lcsLength(a, b)
	return 100 * (1 - float64(dist)/float64(total))
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
