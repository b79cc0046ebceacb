package sevenhalf

// Phase represents the current phase of the session
// Phases only ever move forward
type Phase int

const (
	// PhaseWaiting is before a second participant has joined
	PhaseWaiting Phase = iota
	// PhasePlayersActive is when both seats are filled and participants act
	PhasePlayersActive
	// PhaseDealerPlaying is when the dealer's hand is played out
	PhaseDealerPlaying
	// PhaseEnded is after settlement; the session is inert
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePlayersActive:
		return "playersActive"
	case PhaseDealerPlaying:
		return "dealerPlaying"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}
