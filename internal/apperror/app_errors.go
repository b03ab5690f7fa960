package apperror

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameFull         = errors.New("game is full")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrLineAlreadyDrawn = errors.New("line is already drawn")
	ErrInvalidLine      = errors.New("invalid line")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameFinished     = errors.New("game is already finished")
	ErrNotInGame        = errors.New("player is not in this game")
	ErrAlreadyInGame    = errors.New("player is already in a game")
	ErrPlayerNotFound   = errors.New("player not found")
)
