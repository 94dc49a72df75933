package game

import (
	"testing"

	"github.com/lox/holdem-tables/internal/deck"
	"github.com/lox/holdem-tables/internal/randutil"
)

func card(rank deck.Rank, suit deck.Suit) deck.Card {
	return deck.Card{Rank: rank, Suit: suit}
}

// tally runs the policy across many independent seeds and counts the
// chosen actions.
func tally(in cpuInput, trials int) map[Action]int {
	counts := make(map[Action]int)
	for seed := 0; seed < trials; seed++ {
		d := decideCPU(randutil.New(int64(seed)+1), in)
		counts[d.Action]++
	}
	return counts
}

func TestCPUPocketPairPreflop(t *testing.T) {
	in := cpuInput{
		HoleCards: []deck.Card{card(deck.Nine, deck.Hearts), card(deck.Nine, deck.Clubs)},
		Pot:       15,
		LastBet:   10,
		Chips:     500,
		Round:     RoundPreflop,
	}
	counts := tally(in, 1000)

	if counts[ActionFold] != 0 {
		t.Errorf("pocket pair folded %d times preflop", counts[ActionFold])
	}
	// Raises roughly 60% of the time.
	if counts[ActionRaise] < 500 || counts[ActionRaise] > 700 {
		t.Errorf("pocket pair raised %d/1000 times, want around 600", counts[ActionRaise])
	}
}

func TestCPUTrashHandPreflop(t *testing.T) {
	trash := []deck.Card{card(deck.Seven, deck.Hearts), card(deck.Two, deck.Clubs)}

	// Facing a bet, trash always folds.
	counts := tally(cpuInput{
		HoleCards: trash, Pot: 15, LastBet: 10, Chips: 500, Round: RoundPreflop,
	}, 200)
	if counts[ActionFold] != 200 {
		t.Errorf("trash facing a bet: %v, want all folds", counts)
	}

	// With nothing to call it checks instead.
	counts = tally(cpuInput{
		HoleCards: trash, Pot: 15, LastBet: 0, Chips: 500, Round: RoundPreflop,
	}, 200)
	if counts[ActionCall] != 200 {
		t.Errorf("trash with no bet: %v, want all checks", counts)
	}
}

func TestCPUPlayableHandPreflop(t *testing.T) {
	// Ace-high calls most of the time and bluffs occasionally.
	in := cpuInput{
		HoleCards: []deck.Card{card(deck.Ace, deck.Hearts), card(deck.Four, deck.Clubs)},
		Pot:       15,
		LastBet:   10,
		Chips:     500,
		Round:     RoundPreflop,
	}
	counts := tally(in, 1000)
	if counts[ActionFold] != 0 {
		t.Errorf("ace-high folded %d times", counts[ActionFold])
	}
	if counts[ActionRaise] < 40 || counts[ActionRaise] > 200 {
		t.Errorf("ace-high bluffed %d/1000 times, want around 100", counts[ActionRaise])
	}

	// Suited connectors get the same treatment.
	in.HoleCards = []deck.Card{card(deck.Seven, deck.Hearts), card(deck.Six, deck.Hearts)}
	counts = tally(in, 200)
	if counts[ActionFold] != 0 {
		t.Errorf("suited connector folded %d times", counts[ActionFold])
	}

	// Priced out entirely, it folds.
	in.Chips = 2
	counts = tally(in, 50)
	if counts[ActionFold] != 50 {
		t.Errorf("short stack facing a bet: %v, want all folds", counts)
	}
}

func TestCPUBetsStrongHandsIntoUnopenedPot(t *testing.T) {
	// Flopped trips, nothing to call: always bets.
	in := cpuInput{
		HoleCards: []deck.Card{card(deck.Nine, deck.Hearts), card(deck.Nine, deck.Clubs)},
		CommunityCards: []deck.Card{
			card(deck.Nine, deck.Spades), card(deck.Two, deck.Hearts), card(deck.King, deck.Diamonds),
		},
		Pot:   40,
		Chips: 500,
		Round: RoundFlop,
	}
	for seed := int64(1); seed <= 100; seed++ {
		d := decideCPU(randutil.New(seed), in)
		if d.Action != ActionRaise {
			t.Fatalf("seed %d: strong hand chose %s in unopened pot", seed, d.Action)
		}
		if d.Amount < 20 || d.Amount >= 40 {
			t.Fatalf("seed %d: bet %d, want in [20,40)", seed, d.Amount)
		}
	}
}

func TestCPURaiseClampedToStack(t *testing.T) {
	in := cpuInput{
		HoleCards: []deck.Card{card(deck.Nine, deck.Hearts), card(deck.Nine, deck.Clubs)},
		CommunityCards: []deck.Card{
			card(deck.Nine, deck.Spades), card(deck.Two, deck.Hearts), card(deck.King, deck.Diamonds),
		},
		Pot:   40,
		Chips: 7,
		Round: RoundFlop,
	}
	for seed := int64(1); seed <= 100; seed++ {
		d := decideCPU(randutil.New(seed), in)
		if d.Action == ActionRaise && d.Amount > 7 {
			t.Fatalf("seed %d: raise %d exceeds stack of 7", seed, d.Amount)
		}
	}
}

func TestCPUFoldsWeakHandToBadPotOdds(t *testing.T) {
	// High card facing a bet with pot odds over the threshold.
	in := cpuInput{
		HoleCards: []deck.Card{card(deck.Queen, deck.Hearts), card(deck.Four, deck.Clubs)},
		CommunityCards: []deck.Card{
			card(deck.Nine, deck.Spades), card(deck.Two, deck.Hearts), card(deck.King, deck.Diamonds),
		},
		Pot:     100,
		LastBet: 20,
		Chips:   500,
		Round:   RoundFlop,
	}
	counts := tally(in, 100)
	if counts[ActionFold] != 100 {
		t.Errorf("weak hand with bad pot odds: %v, want all folds", counts)
	}
}

func TestCPUMediumHandFacingBet(t *testing.T) {
	// Paired board gives one pair: mostly calls, occasional reraise,
	// folds only when short.
	in := cpuInput{
		HoleCards: []deck.Card{card(deck.King, deck.Hearts), card(deck.Four, deck.Clubs)},
		CommunityCards: []deck.Card{
			card(deck.King, deck.Spades), card(deck.Two, deck.Hearts), card(deck.Nine, deck.Diamonds),
		},
		Pot:     60,
		LastBet: 20,
		Chips:   500,
		Round:   RoundFlop,
	}
	counts := tally(in, 1000)
	if counts[ActionFold] != 0 {
		t.Errorf("funded one pair folded %d times", counts[ActionFold])
	}
	if counts[ActionRaise] < 40 || counts[ActionRaise] > 200 {
		t.Errorf("one pair reraised %d/1000 times, want around 100", counts[ActionRaise])
	}

	in.Chips = 5
	counts = tally(in, 50)
	if counts[ActionFold] != 50 {
		t.Errorf("short-stacked one pair: %v, want all folds", counts)
	}
}

func TestPotOdds(t *testing.T) {
	if got := potOdds(100, 0); got != 0 {
		t.Errorf("potOdds with nothing to call = %v, want 0", got)
	}
	if got := potOdds(100, 100); got != 0.5 {
		t.Errorf("potOdds(100, 100) = %v, want 0.5", got)
	}
	if got := potOdds(300, 100); got != 0.75 {
		t.Errorf("potOdds(300, 100) = %v, want 0.75", got)
	}
}
