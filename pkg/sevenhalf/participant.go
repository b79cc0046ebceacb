package sevenhalf

import "setteemezzo-server/pkg/deck"

// Result is the settlement outcome for a participant
type Result string

// Result constants
const (
	ResultPending Result = ""
	ResultWon     Result = "won"
	ResultPush    Result = "push"
	ResultLost    Result = "lost"
)

// Participant is a seat at a session
type Participant struct {
	PlayerID int64

	hand   []*deck.Card
	done   bool
	result Result
}

func newParticipant(playerID int64) *Participant {
	return &Participant{
		PlayerID: playerID,
		hand:     make([]*deck.Card, 0, 4),
	}
}

// AddCard adds a card to the participant's hand
func (p *Participant) AddCard(card *deck.Card) {
	p.hand = append(p.hand, card)
}

// Hand returns a shallow copy of the participant's hand
func (p *Participant) Hand() []*deck.Card {
	return append([]*deck.Card{}, p.hand...)
}

// Score returns the participant's current hand score
func (p *Participant) Score() float64 {
	return Score(p.hand)
}

// IsDone returns true once the participant has stood or busted
func (p *Participant) IsDone() bool {
	return p.done
}

// Result returns the settlement outcome, or ResultPending before settlement
func (p *Participant) Result() Result {
	return p.result
}
