package sevenhalf

import "errors"

// ErrTableFull is returned when a join attempt cannot be seated, either
// because both seats are taken or because play has already begun
var ErrTableFull = errors.New("the table is full")

// ErrAlreadySeated is returned when a player tries to join a session twice
var ErrAlreadySeated = errors.New("player is already seated")

// ErrNotSeated is returned when the player is not a participant of the session
var ErrNotSeated = errors.New("player is not seated at this session")

// ErrNotTurn is returned when a player hits out of turn
var ErrNotTurn = errors.New("it is not your turn")

// ErrGameOver is returned when an action is attempted on an ended session
var ErrGameOver = errors.New("the session has ended")

// ErrInvalidWager is returned when a session is created with a non-positive wager
var ErrInvalidWager = errors.New("wager must be greater than zero")
