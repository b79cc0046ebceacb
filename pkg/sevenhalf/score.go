package sevenhalf

import "setteemezzo-server/pkg/deck"

// Target is the best possible hand score
const Target = 7.5

// DealerStands is the score at which the dealer stops drawing
const DealerStands = 6.0

// MattaRank is the rank of the wildcard ("matta")
const MattaRank = 10

// cardValue returns the fixed value of a non-matta card
func cardValue(c *deck.Card) float64 {
	if c.Rank <= 7 {
		return float64(c.Rank)
	}

	return 0.5
}

// Score computes a hand's value.
// Cards 1-7 count their rank, the fante and cavallo (8, 9) count a half
// point, and the matta (10) tops the hand up to the target, capped at a
// 7-point contribution. A second matta adds nothing beyond the first.
func Score(cards []*deck.Card) float64 {
	total := 0.0
	matta := false

	for _, c := range cards {
		if c.Rank == MattaRank {
			matta = true
			continue
		}

		total += cardValue(c)
	}

	if matta {
		needed := Target - total
		if needed > 7 {
			needed = 7
		}

		if needed > 0 {
			total += needed
		}
	}

	return total
}

// IsBust returns true if the hand exceeds the target
func IsBust(cards []*deck.Card) bool {
	return Score(cards) > Target
}
