package game

import (
	rand "math/rand/v2"

	"github.com/lox/holdem-tables/internal/deck"
	"github.com/lox/holdem-tables/internal/evaluator"
)

// cpuInput is the snapshot a CPU seat decides on. Captured under the
// table lock, consumed after the think delay, so a stale snapshot is
// re-validated before the decision is applied.
type cpuInput struct {
	HoleCards      []deck.Card
	CommunityCards []deck.Card
	Pot            int
	LastBet        int
	BetThisRound   int
	Chips          int
	Round          Round
}

// cpuDecision is the action a CPU seat settled on.
type cpuDecision struct {
	Action Action
	Amount int
}

func isStrongCategory(c evaluator.Category) bool {
	return c >= evaluator.ThreeOfAKind
}

func isMediumCategory(c evaluator.Category) bool {
	return c == evaluator.OnePair || c == evaluator.TwoPair
}

// potOdds is pot/(pot+toCall), zero when there is nothing to call.
func potOdds(pot, toCall int) float64 {
	if toCall == 0 {
		return 0
	}
	return float64(pot) / float64(pot+toCall)
}

// decideCPU picks the CPU's action with a simple probabilistic
// policy: raise pairs and bet made hands, bluff occasionally, call or
// fold marginal spots on pot odds. Raise amounts are clamped to the
// seat's stack.
func decideCPU(rng *rand.Rand, in cpuInput) cpuDecision {
	hv := evaluator.Evaluate(in.HoleCards, in.CommunityCards)
	toCall := in.LastBet - in.BetThisRound
	odds := potOdds(in.Pot, toCall)

	raise := func(amount int) cpuDecision {
		return cpuDecision{Action: ActionRaise, Amount: min(in.Chips, amount)}
	}

	if in.Round == RoundPreflop && len(in.HoleCards) == 2 {
		c1, c2 := in.HoleCards[0], in.HoleCards[1]
		suited := c1.Suit == c2.Suit
		gap := int(c1.Rank) - int(c2.Rank)
		if gap < 0 {
			gap = -gap
		}
		highCard := c1.IsHigh() || c2.IsHigh()

		switch {
		case isMediumCategory(hv.Category):
			// Pocket pair: raise it more often than not.
			if rng.Float64() < 0.6 {
				return raise(rng.IntN(20) + 10)
			}
			return cpuDecision{Action: ActionCall}
		case highCard || (suited && gap <= 2):
			if in.Chips < toCall {
				return cpuDecision{Action: ActionFold}
			}
			if rng.Float64() < 0.1 {
				// Occasional bluff with playable cards.
				return raise(rng.IntN(20) + 10)
			}
			return cpuDecision{Action: ActionCall}
		default:
			if toCall == 0 {
				return cpuDecision{Action: ActionCall}
			}
			return cpuDecision{Action: ActionFold}
		}
	}

	// Unopened pot: bet made hands, check the rest.
	if toCall == 0 {
		if isStrongCategory(hv.Category) {
			return raise(rng.IntN(20) + 20)
		}
		if isMediumCategory(hv.Category) && rng.Float64() < 0.4 {
			return raise(rng.IntN(20) + 10)
		}
		return cpuDecision{Action: ActionCall}
	}

	if isStrongCategory(hv.Category) && rng.Float64() < 0.55 {
		return raise(toCall + rng.IntN(20) + 20)
	}

	if isMediumCategory(hv.Category) {
		if in.Chips < toCall {
			return cpuDecision{Action: ActionFold}
		}
		if hv.Category == evaluator.TwoPair && rng.Float64() < 0.35 {
			return raise(toCall + rng.IntN(20) + 20)
		}
		if rng.Float64() < 0.1 {
			return raise(toCall + rng.IntN(20) + 10)
		}
		return cpuDecision{Action: ActionCall}
	}

	// High card and anything that fell through: pot odds decide.
	if odds > 0.5 || in.Chips < toCall {
		return cpuDecision{Action: ActionFold}
	}
	return cpuDecision{Action: ActionCall}
}
