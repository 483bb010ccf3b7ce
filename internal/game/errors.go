package game

import "errors"

// Rejections returned to the offending caller. None of these take down a
// session; the connection and the round both survive.
var (
	ErrWrongStage      = errors.New("operation not valid in current stage")
	ErrUnknownPlayer   = errors.New("player not seated in this round")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrInvalidBet      = errors.New("invalid bet")
	ErrInvalidAction   = errors.New("invalid action")
	ErrSeatUnavailable = errors.New("seat unavailable until next round")
	ErrUnknownKind     = errors.New("unknown game kind")
)
