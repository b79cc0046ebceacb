package sevenhalf

import (
	"github.com/sirupsen/logrus"
	"setteemezzo-server/pkg/deck"
)

// maxParticipants is the number of seats at a table
const maxParticipants = 2

// Session is a single table of sette e mezzo.
// A session is not safe for concurrent use; callers must serialize access
// to it (see pkg/lobby).
type Session struct {
	code  string
	wager int

	deck            *deck.Deck
	dealerHand      []*deck.Card
	participants    []*Participant
	idToParticipant map[int64]*Participant

	// turn is the player ID whose turn it is, or 0 if no participant may act
	turn  int64
	phase Phase

	// adjustments holds the settlement credits per player, set once at settlement
	adjustments map[int64]int

	logger logrus.FieldLogger
}

// NewSession creates a session, seats the first participant, and deals one
// card each to the dealer and the participant.
// The caller must have escrowed the wager before calling this.
func NewSession(logger logrus.FieldLogger, code string, playerID int64, wager int) (*Session, error) {
	if wager <= 0 {
		return nil, ErrInvalidWager
	}

	d := deck.New()
	d.Shuffle()

	s := &Session{
		code:            code,
		wager:           wager,
		deck:            d,
		dealerHand:      make([]*deck.Card, 0, 4),
		participants:    make([]*Participant, 0, maxParticipants),
		idToParticipant: make(map[int64]*Participant),
		phase:           PhaseWaiting,
		logger:          logger.WithField("code", code),
	}

	card, err := s.deck.Draw()
	if err != nil {
		return nil, err
	}
	s.dealerHand = append(s.dealerHand, card)

	if err := s.seat(playerID); err != nil {
		return nil, err
	}

	s.turn = playerID
	s.logger.WithFields(logrus.Fields{
		"playerId": playerID,
		"wager":    wager,
	}).Info("session created")

	return s, nil
}

// Code returns the session code
func (s *Session) Code() string {
	return s.code
}

// Wager returns the per-seat wager
func (s *Session) Wager() int {
	return s.wager
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	return s.phase
}

// Turn returns the player ID whose turn it is, or 0 if no participant may act
func (s *Session) Turn() int64 {
	return s.turn
}

// DeckSize returns the number of undrawn cards
func (s *Session) DeckSize() int {
	return s.deck.CardsLeft()
}

// DealerHand returns a shallow copy of the dealer's hand
func (s *Session) DealerHand() []*deck.Card {
	return append([]*deck.Card{}, s.dealerHand...)
}

// Participants returns the participants in seating order
func (s *Session) Participants() []*Participant {
	return append([]*Participant{}, s.participants...)
}

// CanJoin returns nil if the player may join the session.
// It performs no mutation, so callers can escrow the wager between CanJoin
// and Join without risking a partially applied action.
func (s *Session) CanJoin(playerID int64) error {
	if s.phase == PhaseEnded {
		return ErrGameOver
	}

	if _, ok := s.idToParticipant[playerID]; ok {
		return ErrAlreadySeated
	}

	if len(s.participants) >= maxParticipants || s.phase != PhaseWaiting {
		return ErrTableFull
	}

	return nil
}

// Join seats a second participant and deals them one card.
// The caller must have escrowed the wager before calling this.
func (s *Session) Join(playerID int64) error {
	if err := s.CanJoin(playerID); err != nil {
		return err
	}

	if err := s.seat(playerID); err != nil {
		return err
	}

	if len(s.participants) == maxParticipants {
		s.phase = PhasePlayersActive
	}

	s.logger.WithField("playerId", playerID).Info("participant joined")
	return nil
}

func (s *Session) seat(playerID int64) error {
	card, err := s.deck.Draw()
	if err != nil {
		return err
	}

	p := newParticipant(playerID)
	p.AddCard(card)
	s.participants = append(s.participants, p)
	s.idToParticipant[playerID] = p

	return nil
}

// Hit draws a card for the player if it is their turn.
// A hit that busts the hand marks the participant done and advances the turn.
func (s *Session) Hit(playerID int64) (*deck.Card, error) {
	if s.phase == PhaseEnded || s.phase == PhaseDealerPlaying {
		return nil, ErrGameOver
	}

	p, ok := s.idToParticipant[playerID]
	if !ok {
		return nil, ErrNotSeated
	}

	if s.turn != playerID {
		return nil, ErrNotTurn
	}

	card, err := s.deck.Draw()
	if err != nil {
		return nil, s.fatal(err)
	}

	p.AddCard(card)
	s.logger.WithFields(logrus.Fields{
		"playerId": playerID,
		"card":     card.String(),
	}).Debug("hit")

	if IsBust(p.hand) {
		p.done = true
		s.logger.WithField("playerId", playerID).Info("participant busted")
		if err := s.advanceTurn(); err != nil {
			return nil, err
		}
	}

	return card, nil
}

// Stand marks the player done and advances the turn.
// Standing out of turn is a no-op.
func (s *Session) Stand(playerID int64) error {
	if s.phase == PhaseEnded || s.phase == PhaseDealerPlaying {
		return ErrGameOver
	}

	p, ok := s.idToParticipant[playerID]
	if !ok {
		return ErrNotSeated
	}

	if s.turn != playerID {
		return nil
	}

	p.done = true
	s.logger.WithFields(logrus.Fields{
		"playerId": playerID,
		"score":    p.Score(),
	}).Info("participant stands")

	return s.advanceTurn()
}

// advanceTurn gives the turn to the first participant who is not done.
// Once all participants are done, the dealer plays and the session settles.
func (s *Session) advanceTurn() error {
	for _, p := range s.participants {
		if !p.done {
			s.turn = p.PlayerID
			return nil
		}
	}

	s.turn = 0
	s.phase = PhaseDealerPlaying

	if err := s.playDealer(); err != nil {
		return err
	}

	s.settle()
	s.phase = PhaseEnded

	return nil
}

// playDealer draws into the dealer hand while its score is below the
// stand threshold. The policy never branches on participant hands.
func (s *Session) playDealer() error {
	for Score(s.dealerHand) < DealerStands {
		card, err := s.deck.Draw()
		if err != nil {
			return s.fatal(err)
		}

		s.dealerHand = append(s.dealerHand, card)
	}

	s.logger.WithFields(logrus.Fields{
		"hand":  deck.CardsToString(s.dealerHand),
		"score": Score(s.dealerHand),
	}).Info("dealer finished")

	return nil
}

// settle compares every participant to the dealer and records results and
// balance credits. A win pays back double the wager, a push refunds it, and
// a loss pays nothing since the wager was collected at seating time.
func (s *Session) settle() {
	dealerScore := Score(s.dealerHand)
	adjustments := make(map[int64]int, len(s.participants))

	for _, p := range s.participants {
		score := p.Score()

		switch {
		case score <= Target && (dealerScore > Target || score > dealerScore):
			p.result = ResultWon
			adjustments[p.PlayerID] = 2 * s.wager
		case score <= Target && score == dealerScore:
			p.result = ResultPush
			adjustments[p.PlayerID] = s.wager
		default:
			p.result = ResultLost
			adjustments[p.PlayerID] = 0
		}

		s.logger.WithFields(logrus.Fields{
			"playerId": p.PlayerID,
			"score":    score,
			"result":   p.result,
		}).Info("settled")
	}

	s.adjustments = adjustments
}

// Settlement returns the per-player balance credits once the session has
// ended. The second return value is false while the session is in progress
// or if it was aborted before settlement.
func (s *Session) Settlement() (map[int64]int, bool) {
	if s.phase != PhaseEnded || s.adjustments == nil {
		return nil, false
	}

	return s.adjustments, true
}

// fatal aborts the session. This only happens if the deck runs out, which a
// 40-card deck with at most two participants and a dealer cannot reach.
func (s *Session) fatal(err error) error {
	s.logger.WithError(err).Error("session aborted")
	s.turn = 0
	s.phase = PhaseEnded
	return err
}
