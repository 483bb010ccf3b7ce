package poker

import (
	"sort"

	"github.com/Richrosh3/online-casino/internal/cards"
)

// Hand categories, weakest first. The numeric value doubles as the most
// significant digit of a hand's score.
const (
	catHighCard = iota + 1
	catOnePair
	catTwoPair
	catThreeOfAKind
	catStraight
	catFlush
	catFullHouse
	catFourOfAKind
	catStraightFlush
)

var categoryNames = map[int]string{
	catHighCard:      "High Card",
	catOnePair:       "One Pair",
	catTwoPair:       "Two Pair",
	catThreeOfAKind:  "Three of a Kind",
	catStraight:      "Straight",
	catFlush:         "Flush",
	catFullHouse:     "Full House",
	catFourOfAKind:   "Four of a Kind",
	catStraightFlush: "Straight Flush",
}

// Evaluate scores the best five-card hand available in cs (two hole cards
// plus the board). The returned value orders hands totally: category first,
// then the five played ranks as two-digit groups, so any two hands compare
// with a single integer comparison.
func Evaluate(cs []cards.Card) (string, int64) {
	ranks := make([]int, len(cs))
	counts := map[int]int{}
	bySuit := map[cards.Suit][]int{}
	for i, c := range cs {
		v := c.Rank.Order()
		ranks[i] = v
		counts[v]++
		bySuit[c.Suit] = append(bySuit[c.Suit], v)
	}

	var flushRanks []int
	for _, suited := range bySuit {
		if len(suited) >= 5 {
			flushRanks = suited
			break
		}
	}

	if flushRanks != nil {
		if run, ok := bestStraight(flushRanks); ok {
			return score(catStraightFlush, run)
		}
	}
	if quad, ok := highestWithCount(counts, 4); ok {
		kickers := topRanks(counts, 1, quad)
		return score(catFourOfAKind, []int{quad, quad, quad, quad, kickers[0]})
	}
	if trips, ok := highestWithCount(counts, 3); ok {
		rest := copyCounts(counts)
		rest[trips] -= 3
		if pair, ok := highestWithCount(rest, 2); ok {
			return score(catFullHouse, []int{trips, trips, trips, pair, pair})
		}
	}
	if flushRanks != nil {
		sorted := append([]int(nil), flushRanks...)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		return score(catFlush, sorted[:5])
	}
	if run, ok := bestStraight(ranks); ok {
		return score(catStraight, run)
	}
	if trips, ok := highestWithCount(counts, 3); ok {
		kickers := topRanks(counts, 2, trips)
		return score(catThreeOfAKind, []int{trips, trips, trips, kickers[0], kickers[1]})
	}
	if hi, ok := highestWithCount(counts, 2); ok {
		rest := copyCounts(counts)
		rest[hi] -= 2
		if lo, ok := highestWithCount(rest, 2); ok {
			kickers := topRanks(counts, 1, hi, lo)
			return score(catTwoPair, []int{hi, hi, lo, lo, kickers[0]})
		}
		kickers := topRanks(counts, 3, hi)
		return score(catOnePair, []int{hi, hi, kickers[0], kickers[1], kickers[2]})
	}

	sorted := append([]int(nil), ranks...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	return score(catHighCard, sorted[:5])
}

func score(cat int, played []int) (string, int64) {
	v := int64(cat)
	for _, r := range played {
		v = v*100 + int64(r)
	}
	return categoryNames[cat], v
}

// bestStraight finds the highest run of five consecutive distinct ranks,
// with the ace also playing low for the wheel.
func bestStraight(ranks []int) ([]int, bool) {
	present := map[int]bool{}
	for _, r := range ranks {
		present[r] = true
	}
	if present[14] {
		present[1] = true
	}
	for high := 14; high >= 5; high-- {
		run := true
		for d := 0; d < 5; d++ {
			if !present[high-d] {
				run = false
				break
			}
		}
		if run {
			return []int{high, high - 1, high - 2, high - 3, high - 4}, true
		}
	}
	return nil, false
}

// highestWithCount returns the highest rank appearing at least n times.
func highestWithCount(counts map[int]int, n int) (int, bool) {
	best := 0
	for rank, c := range counts {
		if c >= n && rank > best {
			best = rank
		}
	}
	return best, best > 0
}

// topRanks returns the n highest remaining card values after the excluded
// ranks are removed entirely, duplicates included.
func topRanks(counts map[int]int, n int, exclude ...int) []int {
	rest := []int{}
	for rank, c := range counts {
		skip := false
		for _, ex := range exclude {
			if rank == ex {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		for i := 0; i < c; i++ {
			rest = append(rest, rank)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rest)))
	return rest[:n]
}

func copyCounts(counts map[int]int) map[int]int {
	out := make(map[int]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
