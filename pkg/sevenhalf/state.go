package sevenhalf

import "setteemezzo-server/pkg/deck"

// State is a snapshot of the session from the perspective of one player
type State struct {
	Code         string              `json:"code"`
	Phase        string              `json:"phase"`
	Wager        int                 `json:"wager"`
	Turn         int64               `json:"turn"`
	DeckSize     int                 `json:"deckSize"`
	Dealer       *DealerState        `json:"dealer"`
	Participants []*ParticipantState `json:"participants"`
}

// DealerState is the visible dealer hand.
// Until the dealer plays, only the first card is shown.
type DealerState struct {
	Cards     []*deck.Card `json:"cards"`
	CardCount int          `json:"cardCount"`
	Score     *float64     `json:"score,omitempty"`
}

// ParticipantState is the visible state of one seat.
// A participant's full hand is shown only to themselves until the session ends.
type ParticipantState struct {
	PlayerID  int64        `json:"playerId"`
	CardCount int          `json:"cardCount"`
	Done      bool         `json:"done"`
	Result    Result       `json:"result,omitempty"`
	Cards     []*deck.Card `json:"cards,omitempty"`
	Score     *float64     `json:"score,omitempty"`
}

// State returns the masked snapshot for the given player
func (s *Session) State(playerID int64) *State {
	dealerRevealed := s.phase == PhaseDealerPlaying || s.phase == PhaseEnded

	dealer := &DealerState{
		CardCount: len(s.dealerHand),
	}
	if dealerRevealed {
		dealer.Cards = s.DealerHand()
		score := Score(s.dealerHand)
		dealer.Score = &score
	} else {
		dealer.Cards = s.dealerHand[0:1]
	}

	participants := make([]*ParticipantState, len(s.participants))
	for i, p := range s.participants {
		ps := &ParticipantState{
			PlayerID:  p.PlayerID,
			CardCount: len(p.hand),
			Done:      p.done,
			Result:    p.result,
		}

		if p.PlayerID == playerID || s.phase == PhaseEnded {
			ps.Cards = p.Hand()
			score := p.Score()
			ps.Score = &score
		}

		participants[i] = ps
	}

	return &State{
		Code:         s.code,
		Phase:        s.phase.String(),
		Wager:        s.wager,
		Turn:         s.turn,
		DeckSize:     s.deck.CardsLeft(),
		Dealer:       dealer,
		Participants: participants,
	}
}
