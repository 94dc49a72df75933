// Package evaluator picks the best five-card poker hand from hole and
// community cards and produces a totally ordered score vector for it.
package evaluator

import (
	"sort"

	"github.com/lox/holdem-tables/internal/deck"
)

// Category identifies a hand category. Higher is stronger, and the
// category is always the leading element of the score vector.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the display name of the category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandValue is the result of evaluating a set of cards: the category,
// the full tie-break score vector (category first), and the literal
// winning cards for display.
type HandValue struct {
	Category Category    `json:"category"`
	Score    []int       `json:"score"`
	Cards    []deck.Card `json:"cards"`
}

// Evaluate returns the best hand of up to five cards drawn from the
// union of hole and community cards. With fewer than five cards
// available the full set is evaluated, so preflop evaluation of two
// hole cards still classifies pairs and high cards.
func Evaluate(hole, community []deck.Card) HandValue {
	all := make([]deck.Card, 0, len(hole)+len(community))
	all = append(all, hole...)
	all = append(all, community...)

	size := len(all)
	if size > 5 {
		size = 5
	}

	var best HandValue
	forEachCombination(all, size, func(hand []deck.Card) {
		hv := evaluateHand(hand)
		if best.Score == nil || CompareScores(hv.Score, best.Score) > 0 {
			best = hv
		}
	})
	return best
}

// CompareScores orders two score vectors lexicographically over their
// overlapping prefix; when that prefix is equal, the longer vector
// wins. Returns 1, 0 or -1.
func CompareScores(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] > b[i] {
			return 1
		}
		if a[i] < b[i] {
			return -1
		}
	}
	switch {
	case len(a) > len(b):
		return 1
	case len(a) < len(b):
		return -1
	default:
		return 0
	}
}

// evaluateHand scores a single hand of up to five cards.
func evaluateHand(hand []deck.Card) HandValue {
	cards := make([]deck.Card, len(hand))
	copy(cards, hand)
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Rank.Value() > cards[j].Rank.Value()
	})

	sortedValues := make([]int, len(cards))
	for i, c := range cards {
		sortedValues[i] = c.Rank.Value()
	}

	flush := len(cards) == 5 && isFlush(cards)
	straightHigh := 0
	if len(cards) == 5 {
		straightHigh = straightHighCard(cards)
	}
	counts := rankCounts(cards)

	switch {
	case flush && straightHigh == 14:
		return HandValue{Category: RoyalFlush, Score: []int{int(RoyalFlush)}, Cards: cards}
	case flush && straightHigh > 0:
		return HandValue{Category: StraightFlush, Score: []int{int(StraightFlush), straightHigh}, Cards: cards}
	case counts.has(4):
		quad := counts.highestWithCount(4)
		kicker := counts.kickers(1, quad)
		return HandValue{Category: FourOfAKind, Score: append([]int{int(FourOfAKind), quad}, kicker...), Cards: cards}
	case counts.has(3) && counts.has(2):
		triple := counts.highestWithCount(3)
		pair := counts.highestWithCount(2)
		return HandValue{Category: FullHouse, Score: []int{int(FullHouse), triple, pair}, Cards: cards}
	case flush:
		return HandValue{Category: Flush, Score: append([]int{int(Flush)}, sortedValues...), Cards: cards}
	case straightHigh > 0:
		return HandValue{Category: Straight, Score: []int{int(Straight), straightHigh}, Cards: cards}
	case counts.has(3):
		triple := counts.highestWithCount(3)
		kickers := counts.kickers(2, triple)
		return HandValue{Category: ThreeOfAKind, Score: append([]int{int(ThreeOfAKind), triple}, kickers...), Cards: cards}
	case counts.pairCount() >= 2:
		pairs := counts.pairsDescending()
		score := []int{int(TwoPair), pairs[0], pairs[1]}
		if kickers := counts.kickers(1, pairs[0], pairs[1]); len(kickers) > 0 {
			score = append(score, kickers...)
		}
		return HandValue{Category: TwoPair, Score: score, Cards: cards}
	case counts.has(2):
		pair := counts.highestWithCount(2)
		kickers := counts.kickers(3, pair)
		return HandValue{Category: OnePair, Score: append([]int{int(OnePair), pair}, kickers...), Cards: cards}
	default:
		return HandValue{Category: HighCard, Score: append([]int{int(HighCard)}, sortedValues...), Cards: cards}
	}
}

// isFlush reports whether all five cards share one suit.
func isFlush(cards []deck.Card) bool {
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			return false
		}
	}
	return true
}

// straightHighCard returns the high-card value of a five-card straight
// or 0. The wheel (A-2-3-4-5) counts the ace as 1, so its high card
// is 5.
func straightHighCard(cards []deck.Card) int {
	values := make([]int, len(cards))
	for i, c := range cards {
		values[i] = c.Rank.Value()
	}
	sort.Ints(values)

	if values[0] == 2 && values[1] == 3 && values[2] == 4 && values[3] == 5 && values[4] == 14 {
		return 5
	}
	for i := 1; i < len(values); i++ {
		if values[i] == values[i-1] {
			return 0
		}
	}
	if values[4]-values[0] == 4 {
		return values[4]
	}
	return 0
}

// rankCount is one entry of the frequency histogram.
type rankCount struct {
	value int
	count int
}

// histogram is the rank-frequency histogram ordered by count
// descending then rank descending, the deterministic tie-break order.
type histogram []rankCount

func rankCounts(cards []deck.Card) histogram {
	freq := make(map[int]int)
	for _, c := range cards {
		freq[c.Rank.Value()]++
	}
	h := make(histogram, 0, len(freq))
	for value, count := range freq {
		h = append(h, rankCount{value: value, count: count})
	}
	sort.Slice(h, func(i, j int) bool {
		if h[i].count != h[j].count {
			return h[i].count > h[j].count
		}
		return h[i].value > h[j].value
	})
	return h
}

func (h histogram) has(count int) bool {
	for _, rc := range h {
		if rc.count == count {
			return true
		}
	}
	return false
}

func (h histogram) highestWithCount(count int) int {
	for _, rc := range h {
		if rc.count == count {
			return rc.value
		}
	}
	return 0
}

func (h histogram) pairCount() int {
	n := 0
	for _, rc := range h {
		if rc.count == 2 {
			n++
		}
	}
	return n
}

// pairsDescending returns all pair rank values, highest first. With
// three pairs among seven cards only the top two matter.
func (h histogram) pairsDescending() []int {
	var pairs []int
	for _, rc := range h {
		if rc.count == 2 {
			pairs = append(pairs, rc.value)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pairs)))
	return pairs
}

// kickers returns up to n singleton rank values not used by the made
// hand, highest first.
func (h histogram) kickers(n int, exclude ...int) []int {
	excluded := make(map[int]bool, len(exclude))
	for _, v := range exclude {
		excluded[v] = true
	}
	var out []int
	for _, rc := range h {
		if rc.count == 1 && !excluded[rc.value] {
			out = append(out, rc.value)
			if len(out) == n {
				break
			}
		}
	}
	return out
}

// forEachCombination calls fn with every k-card subset of cards. The
// slice passed to fn is reused between calls.
func forEachCombination(cards []deck.Card, k int, fn func([]deck.Card)) {
	combo := make([]deck.Card, k)
	var recurse func(start, depth int)
	recurse = func(start, depth int) {
		if depth == k {
			fn(combo)
			return
		}
		for i := start; i <= len(cards)-(k-depth); i++ {
			combo[depth] = cards[i]
			recurse(i+1, depth+1)
		}
	}
	recurse(0, 0)
}
