package roulette

import (
	"slices"
	"strconv"
)

// BetKind covers the American-layout wagers the table accepts.
type BetKind string

const (
	BetSingle BetKind = "single"
	BetSplit  BetKind = "split"
	BetTrio   BetKind = "trio"
	BetStreet BetKind = "street"
	BetCorner BetKind = "corner"
	BetDouble BetKind = "double"
	BetBasket BetKind = "basket"
	BetSnake  BetKind = "snake"
	BetColumn BetKind = "column"
	BetDozen  BetKind = "dozen"
	BetColor  BetKind = "color"
	BetEven   BetKind = "even"
	BetOdd    BetKind = "odd"
	BetLow    BetKind = "low"
	BetHigh   BetKind = "high"
)

// payoutMult is the winnings-to-stake ratio per bet kind (stake returned
// on top).
var payoutMult = map[BetKind]int64{
	BetSingle: 35,
	BetSplit:  17,
	BetTrio:   11,
	BetStreet: 11,
	BetCorner: 8,
	BetDouble: 5,
	BetBasket: 6,
	BetSnake:  2,
	BetColumn: 2,
	BetDozen:  2,
	BetColor:  1,
	BetEven:   1,
	BetOdd:    1,
	BetLow:    1,
	BetHigh:   1,
}

// PayoutMult returns the multiplier for a bet kind, or false for an
// unknown kind.
func PayoutMult(kind BetKind) (int64, bool) {
	m, ok := payoutMult[kind]
	return m, ok
}

// rowHeads are the leftmost numbers of the layout's twelve rows.
var rowHeads = func() map[int]bool {
	heads := map[int]bool{}
	for n := 1; n <= 34; n += 3 {
		heads[n] = true
	}
	return heads
}()

// colorOf maps a pocket to its color: r, b, or g for the zeroes.
func colorOf(pocket string) string {
	if pocket == "0" || pocket == "00" {
		return "g"
	}
	n, _ := strconv.Atoi(pocket)
	red := n%2 == 1
	if (n >= 11 && n <= 18) || (n >= 29 && n <= 36) {
		red = !red
	}
	if red {
		return "r"
	}
	return "b"
}

var snakeNumbers = []string{"1", "5", "9", "12", "14", "16", "19", "23", "27", "30", "32", "34"}

// Spec is a validated wager: the kind plus whatever pockets or selector
// the kind requires in Nums.
type Spec struct {
	Kind BetKind  `json:"type"`
	Nums []string `json:"nums"`
}

// Valid checks the bet against the wheel layout: number bets must name
// pockets that are actually adjacent on the felt.
func (b Spec) Valid() bool {
	switch b.Kind {
	case BetSingle:
		return len(b.Nums) == 1 && onWheel(b.Nums[0])
	case BetSplit:
		return validSplit(b.Nums)
	case BetTrio:
		return validTrio(b.Nums)
	case BetStreet:
		return validRow(b.Nums, 3)
	case BetCorner:
		return validCorner(b.Nums)
	case BetDouble:
		return validRow(b.Nums, 6)
	case BetColumn, BetDozen:
		return len(b.Nums) == 1 && (b.Nums[0] == "1" || b.Nums[0] == "2" || b.Nums[0] == "3")
	case BetColor:
		return len(b.Nums) == 1 && (b.Nums[0] == "r" || b.Nums[0] == "b")
	case BetEven, BetOdd, BetLow, BetHigh, BetSnake, BetBasket:
		return true
	default:
		return false
	}
}

func onWheel(s string) bool {
	if s == "00" {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 36
}

func numeric(nums []string) ([]int, bool) {
	out := make([]int, 0, len(nums))
	for _, s := range nums {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 36 {
			return nil, false
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out, true
}

func validSplit(nums []string) bool {
	if len(nums) != 2 {
		return false
	}
	if slices.Contains(nums, "00") {
		return slices.Contains(nums, "0") || slices.Contains(nums, "2") || slices.Contains(nums, "3")
	}
	if slices.Contains(nums, "0") {
		return slices.Contains(nums, "1") || slices.Contains(nums, "2")
	}
	ns, ok := numeric(nums)
	if !ok {
		return false
	}
	diff := ns[1] - ns[0]
	// Horizontal neighbors differ by 1 (within a row), vertical by 3.
	if diff == 1 {
		return !rowHeads[ns[1]]
	}
	return diff == 3
}

func validTrio(nums []string) bool {
	if len(nums) != 3 {
		return false
	}
	if slices.Contains(nums, "00") {
		return slices.Contains(nums, "2") && slices.Contains(nums, "3")
	}
	if slices.Contains(nums, "0") {
		return slices.Contains(nums, "1") && slices.Contains(nums, "2")
	}
	return false
}

func validRow(nums []string, span int) bool {
	if len(nums) != span {
		return false
	}
	ns, ok := numeric(nums)
	if !ok || !rowHeads[ns[0]] {
		return false
	}
	for i, n := range ns {
		if n != ns[0]+i {
			return false
		}
	}
	return true
}

func validCorner(nums []string) bool {
	if len(nums) != 4 {
		return false
	}
	ns, ok := numeric(nums)
	if !ok {
		return false
	}
	min := ns[0]
	if min%3 == 0 || min+4 > 36 {
		// min sits in the rightmost column or the last row; no corner
		// extends from there.
		return false
	}
	return ns[1] == min+1 && ns[2] == min+3 && ns[3] == min+4
}

// Covers reports whether the spun pocket wins this bet.
func (b Spec) Covers(pocket string) bool {
	switch b.Kind {
	case BetBasket:
		return slices.Contains([]string{"00", "0", "1", "2", "3"}, pocket)
	case BetSnake:
		return slices.Contains(snakeNumbers, pocket)
	case BetColumn:
		n, err := strconv.Atoi(pocket)
		if err != nil || n < 1 {
			return false
		}
		col, _ := strconv.Atoi(b.Nums[0])
		return n%3 == col%3
	case BetDozen:
		n, err := strconv.Atoi(pocket)
		if err != nil || n < 1 {
			return false
		}
		d, _ := strconv.Atoi(b.Nums[0])
		return (n-1)/12 == d-1
	case BetColor:
		return colorOf(pocket) == b.Nums[0]
	case BetEven:
		n, err := strconv.Atoi(pocket)
		return err == nil && n >= 1 && n%2 == 0
	case BetOdd:
		n, err := strconv.Atoi(pocket)
		return err == nil && n%2 == 1
	case BetLow:
		n, err := strconv.Atoi(pocket)
		return err == nil && n >= 1 && n <= 18
	case BetHigh:
		n, err := strconv.Atoi(pocket)
		return err == nil && n >= 19 && n <= 36
	default:
		return slices.Contains(b.Nums, pocket)
	}
}

// Payout returns the total credit for a settled stake, stake included,
// or zero when the pocket misses.
func (b Spec) Payout(pocket string, stake int64) int64 {
	if !b.Covers(pocket) {
		return 0
	}
	mult, ok := payoutMult[b.Kind]
	if !ok {
		return 0
	}
	return (mult + 1) * stake
}
