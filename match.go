package ncdiff

import (
	"math"
	"sort"
)

// MatchResult aligns two sets of names. Every input name appears exactly
// once across the four fields, and every slice is sorted
type MatchResult struct {
	// Matched names are present on both sides
	Matched []string
	// Renamed pairs differ in name but scored above the similarity threshold
	Renamed []RenamedPair
	// LeftOnly names have no counterpart on the right
	LeftOnly []string
	// RightOnly names have no counterpart on the left
	RightOnly []string
}

// RenamedPair is a left & right name judged to be the same entity
type RenamedPair struct {
	Left, Right string
	Score       float64
}

// Len is the number of distinct names accounted for by the result, which
// is always the size of the union of both input name sets
func (m MatchResult) Len() int {
	return len(m.Matched) + 2*len(m.Renamed) + len(m.LeftOnly) + len(m.RightOnly)
}

type candidate struct {
	left, right string
	score       float64
}

// MatchNames aligns left & right names from the same entity kind & group
// level:
//
// 1. names present on both sides are matched
// 2. every remaining left name is scored against every remaining right name
// 3. the highest scoring pair at or above threshold is paired & both names
//    removed from consideration, repeating until no pair qualifies. ties go
//    to the lexicographically smaller left name, then right name
// 4. whatever remains is left-only or right-only
//
// a threshold of 1 or more, or a nil scorer, disables step 2 & 3 so only
// exact matches pair up. MatchNames has no side effects
func MatchNames(left, right []string, score Scorer, threshold float64) MatchResult {
	ls, rs := uniqueSorted(left), uniqueSorted(right)
	inLeft, inRight := toSet(ls), toSet(rs)

	var (
		res                 MatchResult
		leftPool, rightPool []string
	)
	for _, name := range ls {
		if inRight[name] {
			res.Matched = append(res.Matched, name)
		} else {
			leftPool = append(leftPool, name)
		}
	}
	for _, name := range rs {
		if !inLeft[name] {
			rightPool = append(rightPool, name)
		}
	}

	pairedLeft := map[string]bool{}
	pairedRight := map[string]bool{}

	if score != nil && threshold < 1 && len(leftPool) > 0 && len(rightPool) > 0 {
		var cands []candidate
		for _, l := range leftPool {
			for _, r := range rightPool {
				s := score(l, r)
				if math.IsNaN(s) || s < threshold {
					continue
				}
				cands = append(cands, candidate{left: l, right: r, score: s})
			}
		}

		// sweeping candidates in descending score order is the same as
		// repeatedly picking the best remaining pair
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].score != cands[j].score {
				return cands[i].score > cands[j].score
			}
			if cands[i].left != cands[j].left {
				return cands[i].left < cands[j].left
			}
			return cands[i].right < cands[j].right
		})

		for _, c := range cands {
			if pairedLeft[c.left] || pairedRight[c.right] {
				continue
			}
			pairedLeft[c.left] = true
			pairedRight[c.right] = true
			res.Renamed = append(res.Renamed, RenamedPair{Left: c.left, Right: c.right, Score: c.score})
		}
		sort.Slice(res.Renamed, func(i, j int) bool { return res.Renamed[i].Left < res.Renamed[j].Left })
	}

	for _, name := range leftPool {
		if !pairedLeft[name] {
			res.LeftOnly = append(res.LeftOnly, name)
		}
	}
	for _, name := range rightPool {
		if !pairedRight[name] {
			res.RightOnly = append(res.RightOnly, name)
		}
	}
	return res
}

func uniqueSorted(names []string) []string {
	set := toSet(names)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
