// Package matching resolves uploaded organization names against the registry
package matching

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Similarity scores two strings from 0 (unrelated) to 100 (identical)
type Similarity interface {
	Score(a, b string) int
}

// Scorer implements the weighted token/partial similarity used for column detection
// and fuzzy name matching. Intermediate ratios are on a 0..100 float scale.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score is the weighted ratio of a and b after scoring normalization
func (s *Scorer) Score(a, b string) int {
	return s.WRatio(a, b)
}

// Ratio is the normalized edit similarity of a and b
func (s *Scorer) Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// PartialRatio is the best Ratio of the shorter string against every equal-length
// window of the longer one
func (s *Scorer) PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return s.Ratio(a, b)
	}

	shortStr := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := s.Ratio(shortStr, string(long[i:i+len(short)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares a and b after sorting their tokens
func (s *Scorer) TokenSortRatio(a, b string, partial bool) float64 {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if partial {
		return s.PartialRatio(sa, sb)
	}
	return s.Ratio(sa, sb)
}

// TokenSetRatio compares the shared tokens of a and b against each side's
// shared-plus-remaining tokens and keeps the best pairing
func (s *Scorer) TokenSetRatio(a, b string, partial bool) float64 {
	setA, setB := tokenSet(a), tokenSet(b)

	var sect, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			sect = append(sect, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	slices.Sort(sect)
	slices.Sort(onlyA)
	slices.Sort(onlyB)

	base := strings.Join(sect, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	ratio := s.Ratio
	if partial {
		ratio = s.PartialRatio
	}
	return max(ratio(base, withA), ratio(base, withB), ratio(withA, withB))
}

// WRatio picks the strongest of the plain, token and partial ratios, discounting
// token and partial results, with partial matching only when the lengths differ enough
func (s *Scorer) WRatio(a, b string) int {
	pa := normalizers.AlphanumericSpaces(a)
	pb := normalizers.AlphanumericSpaces(b)
	if pa == "" || pb == "" {
		return 0
	}

	const unbase = 0.95
	base := s.Ratio(pa, pb)

	la, lb := utf8.RuneCountInString(pa), utf8.RuneCountInString(pb)
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))

	if lenRatio < 1.5 {
		tsort := s.TokenSortRatio(pa, pb, false) * unbase
		tset := s.TokenSetRatio(pa, pb, false) * unbase
		return roundScore(max(base, tsort, tset))
	}

	scale := 0.9
	if lenRatio > 8 {
		scale = 0.6
	}
	partial := s.PartialRatio(pa, pb) * scale
	ptsort := s.TokenSortRatio(pa, pb, true) * unbase * scale
	ptset := s.TokenSetRatio(pa, pb, true) * unbase * scale
	return roundScore(max(base, partial, ptsort, ptset))
}

func roundScore(v float64) int {
	return int(math.Round(v))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}
